package store

import (
	"context"
	"testing"
	"time"

	"github.com/abhishek622/careerflow/internal/gateway"
	"github.com/abhishek622/careerflow/pkg/model"
	"github.com/stretchr/testify/require"
)

var clock = time.Date(2026, 3, 2, 9, 30, 0, 0, time.UTC)

func fixedClock() time.Time { return clock }

func userCtx() context.Context {
	return gateway.WithUser(context.Background(), "user-1")
}

func newMemory() *gateway.Memory {
	gw := gateway.NewMemory()
	gw.SetClock(fixedClock)
	return gw
}

func seedApps(t *testing.T, s *ApplicationStore, companies ...string) []model.Application {
	t.Helper()
	out := make([]model.Application, 0, len(companies))
	for _, c := range companies {
		app, err := s.Add(userCtx(), model.ApplicationDraft{CompanyName: c, JobTitle: "Engineer"})
		require.NoError(t, err)
		out = append(out, app)
	}
	return out
}

func countCalls(gw *gateway.Memory, op gateway.Op) int {
	n := 0
	for _, c := range gw.Calls() {
		if c.Op == op {
			n++
		}
	}
	return n
}
