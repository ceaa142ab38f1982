package period

import (
	"time"

	"github.com/agentstation/periodmap/internal/textnorm"
)

// monthNames is the ordinal month table, indexed by month-1.
var monthNames = [12]string{
	"janeiro", "fevereiro", "março", "abril", "maio", "junho",
	"julho", "agosto", "setembro", "outubro", "novembro", "dezembro",
}

var monthIndex = func() map[string]time.Month {
	m := make(map[string]time.Month, len(monthNames))
	for i, name := range monthNames {
		m[textnorm.Fold(name)] = time.Month(i + 1)
	}
	return m
}()

// MonthName returns the Portuguese name of m, or "" when m is out of range.
func MonthName(m time.Month) string {
	if m < time.January || m > time.December {
		return ""
	}
	return monthNames[m-1]
}

// LookupMonth resolves a month name in any case, with or without accents.
func LookupMonth(name string) (time.Month, bool) {
	m, ok := monthIndex[textnorm.Fold(name)]
	return m, ok
}
