package consumerWorker

import (
	"context"
	"errors"

	"github.com/wb-go/wbf/zlog"

	"meetpoll/internal/dto"
	"meetpoll/internal/model"
	"meetpoll/internal/rabbit"
	"meetpoll/internal/service"
)

type Consumer interface {
	Consume(ctx context.Context, handler func([]byte) error) error
}

type Summaries interface {
	GetEventByShareID(ctx context.Context, shareID string) (*model.EventSummary, error)
}

type DigestSender interface {
	SendDigest(to string, summary *model.EventSummary, shareURL string) error
}

// Reader turns participation notices into organizer digests.
type Reader struct {
	rmq          Consumer
	events       Summaries
	mail         DigestSender
	shareBaseURL string

	done   chan struct{}
	cancel context.CancelFunc
}

func NewReader(rmq Consumer, events Summaries, mail DigestSender, shareBaseURL string) *Reader {
	return &Reader{
		rmq:          rmq,
		events:       events,
		mail:         mail,
		shareBaseURL: shareBaseURL,
		done:         make(chan struct{}),
	}
}

func (r *Reader) Start(ctx context.Context) {
	cctx, cancel := context.WithCancel(ctx)
	r.cancel = cancel

	zlog.Logger.Info().Msg("RabbitMQ Reader started")

	go func() {
		defer close(r.done)

		handler := func(body []byte) error {
			return r.handle(cctx, body)
		}
		if err := r.rmq.Consume(cctx, handler); err != nil {
			zlog.Logger.Error().Err(err).Msg("Failed to start consuming")
			return
		}
		zlog.Logger.Info().Msg("RabbitMQ Reader stopped")
	}()
}

// handle returns an error only for failures worth a redelivery.
func (r *Reader) handle(ctx context.Context, body []byte) error {
	notice, err := rabbit.DecodeNotice(body)
	if err != nil {
		zlog.Logger.Error().Err(err).Msgf("Failed to unmarshal message: %s", string(body))
		return nil
	}

	zlog.Logger.Info().
		Str("share_id", notice.ShareID).
		Str("participant_id", notice.ParticipantID).
		Msg("Received participation notice")

	summary, err := r.events.GetEventByShareID(ctx, notice.ShareID)
	if err != nil {
		if errors.Is(err, service.ErrEventNotFound) {
			zlog.Logger.Warn().Str("share_id", notice.ShareID).Msg("Event from notice no longer exists")
			return nil
		}
		zlog.Logger.Error().Err(err).Str("share_id", notice.ShareID).Msg("Failed to aggregate event in worker")
		return err
	}

	if summary.OrganizerEmail == "" {
		return nil
	}

	shareURL := dto.ShareURL(r.shareBaseURL, summary.ShareID)
	if err := r.mail.SendDigest(summary.OrganizerEmail, summary, shareURL); err != nil {
		zlog.Logger.Warn().Err(err).Str("share_id", notice.ShareID).Msg("Failed to send digest on e-mail")
	}
	return nil
}

func (r *Reader) Stop() {
	if r.cancel != nil {
		r.cancel()
		<-r.done
	}
}
