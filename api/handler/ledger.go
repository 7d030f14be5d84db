package handler

import (
	"context"
	"fmt"

	"github.com/gin-gonic/gin"
	"github.com/use-agent/propscrape/api/middleware"
	"github.com/use-agent/propscrape/models"
)

// Ledger is the billing collaborator. Credits are checked before work
// starts and charged only for successful listings.
type Ledger interface {
	Balance(ctx context.Context, account string) (int, error)
	Charge(ctx context.Context, account string, credits int) error
}

// UnlimitedLedger never runs out and records nothing. It is the default
// when billing happens outside this service.
type UnlimitedLedger struct{}

func (UnlimitedLedger) Balance(context.Context, string) (int, error) { return int(^uint(0) >> 1), nil }

func (UnlimitedLedger) Charge(context.Context, string, int) error { return nil }

// account identifies the caller: the key-derived account when auth is on,
// else the client IP.
func account(c *gin.Context) string {
	if id := c.GetString(middleware.AccountKey); id != "" {
		return id
	}
	return "ip_" + c.ClientIP()
}

// requireCredits fails with INSUFFICIENT_CREDITS when the caller's balance
// is below need.
func requireCredits(c *gin.Context, l Ledger, need int) error {
	bal, err := l.Balance(c.Request.Context(), account(c))
	if err != nil {
		return models.NewScrapeError(models.ErrCodeInternal, "could not read credit balance", err)
	}
	if bal < need {
		return models.NewScrapeError(models.ErrCodeInsufficientCredits,
			fmt.Sprintf("%d credits required, %d available", need, bal), nil)
	}
	return nil
}
