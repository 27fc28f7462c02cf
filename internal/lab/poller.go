package lab

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/sirupsen/logrus"

	"gauge-erp-backend/config"
	"gauge-erp-backend/internal/lifecycle"
	"gauge-erp-backend/internal/parse"
	"gauge-erp-backend/internal/status"
	"gauge-erp-backend/internal/store"
)

// Poller periodically asks the external calibration lab which gauges it has
// finished, and books completed ones back in as pending_certificate.
type Poller struct {
	cfg    config.LabConfig
	store  store.Store
	svc    *lifecycle.Service
	client *http.Client
	log    logrus.FieldLogger
}

// NewPoller creates a lab status poller.
func NewPoller(cfg config.LabConfig, st store.Store, svc *lifecycle.Service, log logrus.FieldLogger) *Poller {
	return &Poller{
		cfg:   cfg,
		store: st,
		svc:   svc,
		client: &http.Client{
			Timeout: 30 * time.Second,
		},
		log: log,
	}
}

// Run starts the polling loop.
func (p *Poller) Run(ctx context.Context) {
	if !p.cfg.Enabled {
		p.log.Info("lab poller is disabled, not starting")
		return
	}
	p.log.Info("starting calibration lab poller")

	p.PollOnce(ctx)

	timer := time.NewTimer(p.cfg.Interval)
	defer timer.Stop()

	for {
		select {
		case <-ctx.Done():
			p.log.Info("lab poller shutting down")
			return
		case <-timer.C:
			p.PollOnce(ctx)
			timer.Reset(p.cfg.Interval)
		}
	}
}

// PollOnce performs a single poll cycle. A fetch failure aborts the cycle
// without touching any gauge state.
func (p *Poller) PollOnce(ctx context.Context) {
	outGauges, err := p.store.ListGaugesByStatus(ctx, status.OutForCalibration)
	if err != nil {
		p.log.WithError(err).Error("failed to list gauges out for calibration")
		return
	}
	if len(outGauges) == 0 {
		return
	}

	byIdent := make(map[string]int64, len(outGauges))
	for _, g := range outGauges {
		byIdent[identKey(g.Ident)] = g.ID
	}

	var items []Item
	total := 1
	pageSize := p.cfg.PageSize
	for page := 1; (page-1)*pageSize < total; page++ {
		resp, err := p.fetchPage(ctx, page)
		if err != nil {
			p.log.WithField("page", page).WithError(err).Error("lab fetch failed, aborting poll cycle")
			return
		}
		if resp.Data.Total == 0 || len(resp.Data.Items) == 0 {
			break
		}
		total = resp.Data.Total
		items = append(items, resp.Data.Items...)
	}

	received := 0
	for _, item := range items {
		if !item.Completed {
			continue
		}
		gaugeID, ok := byIdent[identKey(item.Ident)]
		if !ok {
			continue
		}
		if err := p.svc.ReceiveFromCalibration(ctx, gaugeID); err != nil {
			p.log.WithFields(logrus.Fields{
				"gauge_id": gaugeID,
				"ident":    item.Ident,
			}).WithError(err).Warn("failed to receive gauge from calibration")
			continue
		}
		received++
	}

	if received > 0 {
		p.log.WithField("received", received).Info("lab poll cycle booked gauges back in")
	}
}

// identKey normalizes an identifier for matching, so a lab spelling like
// "GB-4" still hits the stored "GB0004". Unparseable identifiers match
// verbatim only.
func identKey(ident string) string {
	p, err := parse.ParseIdent(ident)
	if err != nil {
		return ident
	}
	key := p.SetCode()
	if p.Role != "" {
		key += "-" + p.Role
	}
	return key
}

// fetchPage fetches one page of the lab's status feed.
func (p *Poller) fetchPage(ctx context.Context, page int) (*Response, error) {
	payload := map[string]any{
		"page":     page,
		"pageSize": p.cfg.PageSize,
	}
	jsonBody, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request payload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, p.cfg.URL, bytes.NewBuffer(jsonBody))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	for key, value := range p.cfg.Headers {
		req.Header.Set(key, value)
	}

	resp, err := p.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("http request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("received non-200 status code: %d", resp.StatusCode)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response body: %w", err)
	}

	var labResp Response
	if err := json.Unmarshal(body, &labResp); err != nil {
		return nil, fmt.Errorf("failed to unmarshal lab response: %w", err)
	}
	if labResp.Code != 0 {
		return nil, fmt.Errorf("lab API returned non-zero application code: %d", labResp.Code)
	}
	return &labResp, nil
}
