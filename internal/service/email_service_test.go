package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/sesv2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
)

type fakeSES struct {
	inputs []*sesv2.SendEmailInput
	err    error
}

func (f *fakeSES) SendEmail(_ context.Context, params *sesv2.SendEmailInput, _ ...func(*sesv2.Options)) (*sesv2.SendEmailOutput, error) {
	f.inputs = append(f.inputs, params)
	if f.err != nil {
		return nil, f.err
	}
	return &sesv2.SendEmailOutput{MessageId: aws.String("msg-1")}, nil
}

func TestSendPasswordResetEmail(t *testing.T) {
	ses := &fakeSES{}
	svc := newEmailService(ses, "noreply@tutorhub.test", "Tutorhub", "https://tutorhub.test", zaptest.NewLogger(t))
	expires := time.Date(2025, 3, 1, 10, 0, 0, 0, time.UTC)

	require.NoError(t, svc.SendPasswordResetEmail(context.Background(), "alice@example.com", "alice", "abc123", expires))
	require.Len(t, ses.inputs, 1)

	input := ses.inputs[0]
	assert.Equal(t, "Tutorhub <noreply@tutorhub.test>", aws.ToString(input.FromEmailAddress))
	assert.Equal(t, []string{"alice@example.com"}, input.Destination.ToAddresses)
	text := aws.ToString(input.Content.Simple.Body.Text.Data)
	assert.Contains(t, text, "https://tutorhub.test/reset-password?token=abc123")
	assert.Contains(t, text, "2025-03-01 10:00 UTC")
}

func TestSendPasswordResetEmailError(t *testing.T) {
	ses := &fakeSES{err: errors.New("throttled")}
	svc := newEmailService(ses, "noreply@tutorhub.test", "", "https://tutorhub.test", zaptest.NewLogger(t))

	err := svc.SendPasswordResetEmail(context.Background(), "alice@example.com", "alice", "abc123", time.Now())
	assert.ErrorContains(t, err, "throttled")
	assert.Equal(t, "noreply@tutorhub.test", aws.ToString(ses.inputs[0].FromEmailAddress))
}

func TestDisabledEmailService(t *testing.T) {
	svc, err := NewEmailService(context.Background(), "us-east-1", "", "", "", zaptest.NewLogger(t))
	require.NoError(t, err)
	assert.False(t, svc.IsEnabled())
	assert.NoError(t, svc.SendPasswordResetEmail(context.Background(), "alice@example.com", "alice", "abc123", time.Now()))
}
