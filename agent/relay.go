package agent

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	daotypes "github.com/calehh/hac-dao/types"
	cmtlog "github.com/cometbft/cometbft/libs/log"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
)

var ErrRelayStatus = errors.New("relay endpoint rejected action")

// Relay delivers an approved proposal's call to its target off chain.
type Relay interface {
	Forward(ctx context.Context, action *daotypes.EventAction) error
}

var _ Relay = &HTTPRelay{}
var _ Relay = NopRelay{}

type RelayRequest struct {
	Seq        uint64         `json:"seq"`
	ProposalId uint64         `json:"proposalId"`
	Recipient  common.Address `json:"recipient"`
	Payload    hexutil.Bytes  `json:"payload"`
}

type HTTPRelay struct {
	Url    string
	client *http.Client
	logger cmtlog.Logger
}

func NewHTTPRelay(url string, timeout time.Duration, logger cmtlog.Logger) *HTTPRelay {
	return &HTTPRelay{
		Url:    url,
		client: &http.Client{Timeout: timeout},
		logger: logger.With("module", "relay"),
	}
}

func (r *HTTPRelay) Forward(ctx context.Context, action *daotypes.EventAction) error {
	body, err := json.Marshal(RelayRequest{
		Seq:        action.Seq,
		ProposalId: action.ProposalID,
		Recipient:  action.Recipient,
		Payload:    action.Payload,
	})
	if err != nil {
		return err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, r.Url, bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	res, err := r.client.Do(req)
	if err != nil {
		r.logger.Error("post action fail", "seq", action.Seq, "err", err)
		return err
	}
	defer res.Body.Close()
	if res.StatusCode/100 != 2 {
		msg, _ := io.ReadAll(io.LimitReader(res.Body, 512))
		return fmt.Errorf("%w: status %d: %s", ErrRelayStatus, res.StatusCode, bytes.TrimSpace(msg))
	}
	r.logger.Info("action relayed", "seq", action.Seq, "proposal", action.ProposalID, "recipient", action.Recipient)
	return nil
}

// NopRelay only marks actions as delivered.
type NopRelay struct{}

func (NopRelay) Forward(context.Context, *daotypes.EventAction) error {
	return nil
}
