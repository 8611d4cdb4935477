package marketdata

import (
	"time"

	"github.com/waleedabsoluit/stealth-scan-trader/internal/contracts"
)

// 미국 장 시간 (ET, 분 단위)
const (
	premarketOpen   = 4 * 60
	regularOpen     = 9*60 + 30
	regularClose    = 16 * 60
	afterhoursClose = 20 * 60
)

var eastern = loadEastern()

func loadEastern() *time.Location {
	loc, err := time.LoadLocation("America/New_York")
	if err != nil {
		// tzdata 없는 환경: EST 고정
		return time.FixedZone("EST", -5*60*60)
	}
	return loc
}

// SessionAt returns the US equity session at t
// 주말은 closed
func SessionAt(t time.Time) contracts.Session {
	et := t.In(eastern)
	if et.Weekday() == time.Saturday || et.Weekday() == time.Sunday {
		return contracts.SessionClosed
	}

	minute := et.Hour()*60 + et.Minute()
	switch {
	case minute >= premarketOpen && minute < regularOpen:
		return contracts.SessionPremarket
	case minute >= regularOpen && minute < regularClose:
		return contracts.SessionRegular
	case minute >= regularClose && minute < afterhoursClose:
		return contracts.SessionAfterhours
	default:
		return contracts.SessionClosed
	}
}
