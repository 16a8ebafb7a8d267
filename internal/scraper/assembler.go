package scraper

import (
	"context"
	"fmt"

	"FlightWatch/internal/config"
	"FlightWatch/internal/model"
)

// AssemblyError wraps a leg failure. errors.Is recognizes it as a
// partial assembly failure while keeping the leg's own error reachable
// through Unwrap.
type AssemblyError struct {
	Leg model.LegType
	Err error
}

func (e *AssemblyError) Error() string {
	return fmt.Sprintf("%s leg failed: %v", e.Leg, e.Err)
}

func (e *AssemblyError) Unwrap() error { return e.Err }

func (e *AssemblyError) Is(target error) bool {
	return target == model.ErrPartialAssembly
}

// Assembler runs the extractor for both legs of the configured round
// trip in one browsing session. A failure on either leg fails the whole
// assembly; callers never see a half-built result.
type Assembler struct {
	extractor *Extractor
}

func NewAssembler(e *Extractor) *Assembler {
	return &Assembler{extractor: e}
}

// Assemble extracts outbound then return. The two legs are sequential:
// they share one browsing session.
func (a *Assembler) Assemble(ctx context.Context, route config.RouteConfig) (model.RoundTrip, error) {
	outbound, err := a.extractor.ExtractLeg(ctx, route.Origin, route.Destination, route.OutboundDate, route.WindowDays)
	if err != nil {
		return model.RoundTrip{}, &AssemblyError{Leg: model.LegOutbound, Err: err}
	}
	ret, err := a.extractor.ExtractLeg(ctx, route.Destination, route.Origin, route.ReturnDate, route.WindowDays)
	if err != nil {
		return model.RoundTrip{}, &AssemblyError{Leg: model.LegReturn, Err: err}
	}
	return model.RoundTrip{Outbound: outbound, Return: ret}, nil
}
