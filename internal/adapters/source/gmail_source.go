package source

import (
	"bytes"
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/mikey/llm-mail-triage/internal/core"
	"github.com/mikey/llm-mail-triage/internal/resilience"
	"go.uber.org/zap"
	"golang.org/x/oauth2/google"
	"golang.org/x/sync/errgroup"
	"google.golang.org/api/gmail/v1"
	"google.golang.org/api/googleapi"
	"google.golang.org/api/option"
)

const (
	defaultFetchWorkers = 4
	perMessageTimeout   = 15 * time.Second
	listPageSize        = 100
)

// GmailSource lists inbox messages through the Gmail API
type GmailSource struct {
	svc     *gmail.Service
	userID  string
	workers int
	logger  *zap.Logger
	now     func() time.Time
}

// NewGmailSource creates a source on an authenticated Gmail service
func NewGmailSource(svc *gmail.Service, userID string, workers int, logger *zap.Logger) *GmailSource {
	if userID == "" {
		userID = "me"
	}
	if workers <= 0 {
		workers = defaultFetchWorkers
	}
	return &GmailSource{
		svc:     svc,
		userID:  userID,
		workers: workers,
		logger:  logger,
		now:     time.Now,
	}
}

// NewGmailService builds a read-only Gmail client from a credentials file. A service
// account key is used with domain-wide delegation when delegatedUser is set; any
// other credential type is used as is.
func NewGmailService(ctx context.Context, credentialsFile, delegatedUser string) (*gmail.Service, error) {
	data, err := os.ReadFile(credentialsFile)
	if err != nil {
		return nil, fmt.Errorf("failed to read Google credentials: %w", err)
	}

	if delegatedUser != "" {
		jwtCfg, err := google.JWTConfigFromJSON(data, gmail.GmailReadonlyScope)
		if err != nil {
			return nil, fmt.Errorf("failed to parse service account key: %w", err)
		}
		jwtCfg.Subject = delegatedUser
		return gmail.NewService(ctx, option.WithHTTPClient(jwtCfg.Client(ctx)))
	}

	creds, err := google.CredentialsFromJSON(ctx, data, gmail.GmailReadonlyScope)
	if err != nil {
		return nil, fmt.Errorf("failed to parse Google credentials: %w", err)
	}
	return gmail.NewService(ctx, option.WithCredentials(creds))
}

// ListRecent returns inbox messages received in the last windowDays days, newest first
// as ordered by Gmail. Messages that fail to download or parse are skipped.
func (s *GmailSource) ListRecent(ctx context.Context, windowDays int, limit int) ([]*core.RawEmail, error) {
	query := fmt.Sprintf("after:%s in:inbox", s.now().UTC().AddDate(0, 0, -windowDays).Format("2006/01/02"))

	ids, err := s.listIDs(ctx, query, limit)
	if err != nil {
		return nil, err
	}
	s.logger.Info("Found messages", zap.String("query", query), zap.Int("count", len(ids)))

	emails := make([]*core.RawEmail, len(ids))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.workers)
	for i, id := range ids {
		g.Go(func() error {
			email, err := s.fetch(gctx, id)
			if err != nil {
				if ctxErr := gctx.Err(); ctxErr != nil {
					return ctxErr
				}
				s.logger.Warn("Failed to process message", zap.String("message_id", id), zap.Error(err))
				return nil
			}
			emails[i] = email
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	out := make([]*core.RawEmail, 0, len(emails))
	for _, e := range emails {
		if e != nil {
			out = append(out, e)
		}
	}
	return out, nil
}

func (s *GmailSource) listIDs(ctx context.Context, query string, limit int) ([]string, error) {
	var ids []string
	pageToken := ""
	for len(ids) < limit {
		req := s.svc.Users.Messages.List(s.userID).Q(query).MaxResults(int64(min(limit-len(ids), listPageSize)))
		if pageToken != "" {
			req = req.PageToken(pageToken)
		}
		resp, err := req.Context(ctx).Do()
		if err != nil {
			return nil, wrapGmailError(err, "failed to list messages")
		}
		for _, m := range resp.Messages {
			ids = append(ids, m.Id)
		}
		if resp.NextPageToken == "" {
			break
		}
		pageToken = resp.NextPageToken
	}
	if len(ids) > limit {
		ids = ids[:limit]
	}
	return ids, nil
}

// fetch downloads one message in raw form. A nil email means it had no usable text.
func (s *GmailSource) fetch(ctx context.Context, id string) (*core.RawEmail, error) {
	msgCtx, cancel := context.WithTimeout(ctx, perMessageTimeout)
	defer cancel()

	msg, err := s.svc.Users.Messages.Get(s.userID, id).Format("raw").Context(msgCtx).Do()
	if err != nil {
		return nil, wrapGmailError(err, "failed to get message")
	}

	raw, err := base64.URLEncoding.DecodeString(msg.Raw)
	if err != nil {
		raw, err = base64.RawURLEncoding.DecodeString(msg.Raw)
		if err != nil {
			return nil, fmt.Errorf("failed to decode raw message: %w", err)
		}
	}

	email, ok, err := ParseMessage(msg.Id, bytes.NewReader(raw))
	if err != nil || !ok {
		return nil, err
	}
	if msg.ThreadId != "" {
		email.ThreadID = msg.ThreadId
	}
	if msg.InternalDate > 0 {
		email.ReceivedAt = time.UnixMilli(msg.InternalDate).UTC()
	}
	return email, nil
}

// Ping checks the credentials by reading the mailbox profile
func (s *GmailSource) Ping(ctx context.Context) error {
	if _, err := s.svc.Users.GetProfile(s.userID).Context(ctx).Do(); err != nil {
		return wrapGmailError(err, "failed to get profile")
	}
	return nil
}

// wrapGmailError marks client errors as permanent so they are not retried
func wrapGmailError(err error, msg string) error {
	wrapped := fmt.Errorf("%s: %w", msg, err)
	var apiErr *googleapi.Error
	if errors.As(err, &apiErr) {
		switch apiErr.Code {
		case 400, 401, 404:
			return resilience.Permanent(wrapped)
		case 403:
			if !isRateLimit(apiErr) {
				return resilience.Permanent(wrapped)
			}
		}
	}
	return wrapped
}

func isRateLimit(apiErr *googleapi.Error) bool {
	for _, item := range apiErr.Errors {
		if item.Reason == "rateLimitExceeded" || item.Reason == "userRateLimitExceeded" {
			return true
		}
	}
	return false
}
