package idparse

import "strconv"

// Birth years before the NRIC numbering scheme started encoding the year.
const nricYearEncodingStart = 1968

// adultAge is the minimum age assumed for a FIN holder.
const adultAge = 18

// DOBValidator checks a date of birth against the era encoded in an ID number.
type DOBValidator struct {
	currentYear int
}

// NewDOBValidator returns a validator that judges adult age relative to currentYear.
func NewDOBValidator(currentYear int) *DOBValidator {
	return &DOBValidator{currentYear: currentYear}
}

// Plausible reports whether dob (day-month-year, year in the last four
// characters) is consistent with idNumber.
//
// FIN numbers (F, G) do not encode a birth year, so any adult birth year is
// accepted. NRIC numbers (S, T) issued to people born from 1968 encode the
// birth year in their first two digits.
func (v *DOBValidator) Plausible(dob, idNumber string) bool {
	if len(idNumber) != NRICLength {
		return false
	}
	year, ok := birthYear(dob)
	if !ok {
		return false
	}

	switch idNumber[0] {
	case 'F', 'G':
		return year <= v.currentYear-adultAge
	case 'S', 'T':
		if year < nricYearEncodingStart {
			return true
		}
		century := 1900
		if idNumber[0] == 'T' {
			century = 2000
		}
		yy, err := strconv.Atoi(idNumber[1:3])
		if err != nil {
			return false
		}
		return year == century+yy
	}
	return false
}

func birthYear(dob string) (int, bool) {
	if len(dob) < 4 {
		return 0, false
	}
	year, err := strconv.Atoi(dob[len(dob)-4:])
	if err != nil {
		return 0, false
	}
	return year, true
}
