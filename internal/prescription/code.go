package prescription

import (
	"crypto/rand"
	"fmt"
	"math/big"
	"time"

	"github.com/tcmclinic/telemed/pkg/types"
)

// GenerateCode builds a prescription code of the form RX<yyyymmdd><nnnn>
// where nnnn is a random 4-digit suffix. Codes are unique per table; a
// collision on insert surfaces as a Conflict and the caller retries.
func GenerateCode(now time.Time) (string, error) {
	n, err := rand.Int(rand.Reader, big.NewInt(10000))
	if err != nil {
		return "", types.NewInternalError("failed to generate prescription code", err)
	}
	return fmt.Sprintf("RX%s%04d", now.Format("20060102"), n.Int64()), nil
}
