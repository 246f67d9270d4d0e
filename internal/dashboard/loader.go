package dashboard

import (
	"context"

	"github.com/loangraph/portal/internal/domain/loan"
	"golang.org/x/sync/errgroup"
)

// Source is the slice of the loan backend the dashboard reads.
type Source interface {
	ListLoans(ctx context.Context, scope loan.Scope) ([]loan.Record, error)
	ListUserDocuments(ctx context.Context, userID string) ([]loan.Document, error)
	ListEMIs(ctx context.Context, loanID string) ([]loan.EMI, error)
}

// Loader owns the state slots of one dashboard session. Fetches are independent: each writes
// its own slot, and one failing does not cancel the others.
type Loader struct {
	src          Source
	Applications *Slot[[]loan.Record]
	Documents    *Slot[[]loan.Document]
	EMIs         *Slot[[]loan.EMI]
}

func NewLoader(src Source) *Loader {
	return &Loader{
		src:          src,
		Applications: NewSlot[[]loan.Record](),
		Documents:    NewSlot[[]loan.Document](),
		EMIs:         NewSlot[[]loan.EMI](),
	}
}

// Request names the fetches to run. Empty ids skip the corresponding fetch.
type Request struct {
	Scope          loan.Scope
	DocumentsOwner string
	EMILoanID      string
}

// Load runs the requested fetches concurrently and waits for them. Errors are recorded in the
// slots, not returned. If ctx ends first the loader is closed, so fetches still running can
// no longer write, and ctx's error is returned.
func (l *Loader) Load(ctx context.Context, req Request) error {
	var g errgroup.Group

	appTicket := l.Applications.Begin()
	g.Go(func() error {
		records, err := l.src.ListLoans(ctx, req.Scope)
		if records == nil && err == nil {
			records = []loan.Record{}
		}
		l.Applications.Resolve(appTicket, records, err)
		return nil
	})

	if req.DocumentsOwner != "" {
		docTicket := l.Documents.Begin()
		g.Go(func() error {
			docs, err := l.src.ListUserDocuments(ctx, req.DocumentsOwner)
			l.Documents.Resolve(docTicket, docs, err)
			return nil
		})
	}

	if req.EMILoanID != "" {
		emiTicket := l.EMIs.Begin()
		g.Go(func() error {
			emis, err := l.src.ListEMIs(ctx, req.EMILoanID)
			l.EMIs.Resolve(emiTicket, emis, err)
			return nil
		})
	}

	done := make(chan struct{})
	go func() {
		_ = g.Wait()
		close(done)
	}()
	select {
	case <-done:
		return nil
	case <-ctx.Done():
		l.Close()
		return ctx.Err()
	}
}

// Close unmounts every slot so late responses are discarded.
func (l *Loader) Close() {
	l.Applications.Unmount()
	l.Documents.Unmount()
	l.EMIs.Unmount()
}

func (l *Loader) Busy() bool {
	return Busy(l.Applications, l.Documents, l.EMIs)
}
