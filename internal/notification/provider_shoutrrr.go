package notification

import (
	"context"
	"fmt"
	"io"
	"log"
	"slices"
	"time"

	shoutrrr "github.com/nicholas-fedor/shoutrrr"
	router "github.com/nicholas-fedor/shoutrrr/pkg/router"
	stypes "github.com/nicholas-fedor/shoutrrr/pkg/types"
	"golang.org/x/time/rate"

	"github.com/tphakala/handsoff-go/internal/errors"
	"github.com/tphakala/handsoff-go/internal/logger"
	"github.com/tphakala/handsoff-go/internal/observability/metrics"
)

// ErrRateLimited is returned when a push is skipped by the rate limit
var ErrRateLimited = errors.NewStd("push rate limit exceeded")

// ShoutrrrProvider pushes notifications to shoutrrr service URLs
// (ntfy, gotify, telegram, discord and others). One sender serves all URLs.
type ShoutrrrProvider struct {
	urls    []string
	sender  *router.ServiceRouter
	limiter *rate.Limiter
	metrics metrics.Recorder
}

// NewShoutrrrProvider validates urls and builds the sender. At most one push is sent
// per minInterval; a zero interval disables the limit.
func NewShoutrrrProvider(urls []string, minInterval, timeout time.Duration, recorder metrics.Recorder) (*ShoutrrrProvider, error) {
	if len(urls) == 0 {
		return nil, errors.Newf("at least one push URL is required").
			Component("notification").
			Category(errors.CategoryConfiguration).
			Build()
	}

	sender, err := shoutrrr.CreateSender(urls...)
	if err != nil {
		// The error can echo URLs with tokens in them
		return nil, errors.New(fmt.Errorf("invalid push URL: %s", logger.RedactSensitiveData(err.Error()))).
			Component("notification").
			Category(errors.CategoryConfiguration).
			Context("url_count", len(urls)).
			Build()
	}
	if timeout > 0 {
		sender.Timeout = timeout
	}
	sender.SetLogger(log.New(io.Discard, "", 0))

	limit := rate.Inf
	if minInterval > 0 {
		limit = rate.Every(minInterval)
	}

	return &ShoutrrrProvider{
		urls:    slices.Clone(urls),
		sender:  sender,
		limiter: rate.NewLimiter(limit, 1),
		metrics: metrics.OrNoOp(recorder),
	}, nil
}

// GetName returns "shoutrrr"
func (s *ShoutrrrProvider) GetName() string { return "shoutrrr" }

// Send pushes n to every configured URL unless the rate limit is exhausted
func (s *ShoutrrrProvider) Send(ctx context.Context, n *Notification) error {
	if !s.limiter.Allow() {
		s.metrics.RecordOperation(metrics.OpPushDelivery, metrics.StatusSuppressed)
		return errors.New(ErrRateLimited).
			Component("notification").
			Category(errors.CategoryLimit).
			Build()
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	params := stypes.Params{}
	if n.Title != "" {
		params.SetTitle(n.Title)
	}

	var sendErrs []error
	for _, err := range s.sender.Send(n.Message, &params) {
		if err != nil {
			sendErrs = append(sendErrs, err)
		}
	}
	if len(sendErrs) > 0 {
		s.metrics.RecordOperation(metrics.OpPushDelivery, metrics.StatusError)
		return errors.New(fmt.Errorf("push failed: %s", logger.RedactSensitiveData(errors.Join(sendErrs...).Error()))).
			Component("notification").
			Category(errors.CategoryNetwork).
			Context("failed", len(sendErrs)).
			Context("targets", len(s.urls)).
			Build()
	}

	s.metrics.RecordOperation(metrics.OpPushDelivery, metrics.StatusSuccess)
	return nil
}
