package patientprofile

// National ID numbers come in two forms: the legacy 15-digit all-numeric
// form and the 18-character form whose last character is a checksum over
// the first 17 digits.

var idWeights = [17]int{7, 9, 10, 5, 8, 4, 2, 1, 6, 3, 7, 9, 10, 5, 8, 4, 2}
var idCheckCodes = [11]byte{'1', '0', 'X', '9', '8', '7', '6', '5', '4', '3', '2'}

// ValidIDNumber reports whether the string is a well-formed ID number.
// Both forms embed the birth date, which must name a plausible month and
// day before the checksum is considered.
func ValidIDNumber(id string) bool {
	switch len(id) {
	case 15:
		return allDigits(id) && validBirthDate(id[8:10], id[10:12])
	case 18:
		if !allDigits(id[:17]) {
			return false
		}
		if !validBirthDate(id[10:12], id[12:14]) {
			return false
		}
		sum := 0
		for i := 0; i < 17; i++ {
			sum += int(id[i]-'0') * idWeights[i]
		}
		want := idCheckCodes[sum%11]
		got := id[17]
		if got == 'x' {
			got = 'X'
		}
		return got == want
	}
	return false
}

// validBirthDate bounds the embedded month and day. February allows 29
// without a leap-year check, matching the lenient historical validator.
func validBirthDate(monthStr, dayStr string) bool {
	month := int(monthStr[0]-'0')*10 + int(monthStr[1]-'0')
	day := int(dayStr[0]-'0')*10 + int(dayStr[1]-'0')

	if month < 1 || month > 12 {
		return false
	}
	if day < 1 || day > 31 {
		return false
	}
	if month == 2 && day > 29 {
		return false
	}
	switch month {
	case 4, 6, 9, 11:
		if day > 30 {
			return false
		}
	}
	return true
}

func allDigits(s string) bool {
	for i := 0; i < len(s); i++ {
		if s[i] < '0' || s[i] > '9' {
			return false
		}
	}
	return true
}
