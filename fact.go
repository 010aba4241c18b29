package enrollmart

import (
	"fmt"
	"time"
)

// FactKeys are the dimension keys returned by the registries for one event.
type FactKeys struct {
	TimeID   time.Time
	UserID   uint64
	CourseID string
}

// FactBuilder assembles fact rows. Apart from copying fields it only checks
// that a present final_price does not exceed price.
type FactBuilder struct{}

// Build returns the fact for ev. If final_price exceeds price the fact is
// still returned, with Flagged set, together with a non-nil failure
// describing the problem.
func (FactBuilder) Build(line int, ev *EnrollmentEvent, keys FactKeys) (EnrollmentFact, *ParseFailure) {
	f := EnrollmentFact{
		TimeID:     keys.TimeID,
		UserID:     keys.UserID,
		CourseID:   keys.CourseID,
		Price:      ev.Price,
		PromoCode:  ev.PromoCode,
		FinalPrice: ev.FinalPrice,
		Line:       line,
	}
	if ev.FinalPrice != nil && *ev.FinalPrice > ev.Price {
		f.Flagged = true
		return f, &ParseFailure{
			Line:   line,
			Reason: ReasonInconsistentDiscount,
			Detail: fmt.Sprintf("final_price %d exceeds price %d", *ev.FinalPrice, ev.Price),
		}
	}
	return f, nil
}
