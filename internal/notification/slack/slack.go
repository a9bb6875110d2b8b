// Package slack posts run summaries to a Slack incoming webhook.
package slack

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/slack-go/slack"

	"github.com/mobilectl/mobilectl/internal/ci"
	"github.com/mobilectl/mobilectl/internal/config"
	"github.com/mobilectl/mobilectl/internal/report"
)

// Reporter is a report.Reporter that sends the run summary to Slack when it is rendered.
type Reporter struct {
	WebhookURL string
	Send       config.When
	// Post delivers the message. Defaults to slack.PostWebhookContext.
	Post func(ctx context.Context, url string, msg *slack.WebhookMessage) error
	// CI links the message to the build that started the run.
	CI *ci.CI

	TestResults []report.TestResult
	lock        sync.Mutex
}

// Add adds the test result.
func (r *Reporter) Add(t report.TestResult) {
	r.lock.Lock()
	defer r.lock.Unlock()
	r.TestResults = append(r.TestResults, t)
}

// Render sends the notification, if the send policy asks for it.
func (r *Reporter) Render() {
	r.lock.Lock()
	defer r.lock.Unlock()

	passed := report.Failed(r.TestResults) == 0
	if !ShouldSendNotification(r.WebhookURL, r.Send, passed, len(r.TestResults)) {
		return
	}

	post := r.Post
	if post == nil {
		post = slack.PostWebhookContext
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := post(ctx, r.WebhookURL, r.newMsg(passed)); err != nil {
		log.Error().Err(err).Msg("Failed to send message to slack.")
		return
	}
	log.Info().Msg("Run summary sent to slack.")
}

// Reset resets the reporter to its initial state. This action will delete all test results.
func (r *Reporter) Reset() {
	r.lock.Lock()
	defer r.lock.Unlock()
	r.TestResults = make([]report.TestResult, 0)
}

// ShouldSendNotification returns true if a notification should be sent, otherwise false.
func ShouldSendNotification(webhookURL string, send config.When, passed bool, results int) bool {
	if webhookURL == "" || results == 0 {
		return false
	}
	return send.IsNow(passed)
}

func (r *Reporter) newMsg(passed bool) *slack.WebhookMessage {
	failed := report.Failed(r.TestResults)
	title := "All devices have passed"
	color := "#008000"
	if !passed {
		title = fmt.Sprintf("%d of %d devices have failed", failed, len(r.TestResults))
		color = "#F00000"
	}

	var runID string
	if len(r.TestResults) > 0 {
		runID = r.TestResults[0].RunID
	}

	var fields []slack.AttachmentField
	for _, t := range r.TestResults {
		status := ":white_check_mark: passed"
		if !t.Passed {
			status = fmt.Sprintf(":x: failed (exit code %d)", t.ExitCode)
		}
		fields = append(fields, slack.AttachmentField{
			Title: t.DeviceName,
			Value: fmt.Sprintf("%s in %s", status, t.Duration.Truncate(time.Second)),
			Short: true,
		})
	}

	attachment := slack.Attachment{
		Color:  color,
		Title:  title,
		Fields: fields,
	}
	if r.CI != nil {
		attachment.TitleLink = r.CI.BuildURL
		attachment.Footer = r.CI.Provider
		if r.CI.Repo != "" {
			attachment.Footer = fmt.Sprintf("%s %s@%s", r.CI.Provider, r.CI.Repo, r.CI.RefName)
		}
	}

	return &slack.WebhookMessage{
		Text:        fmt.Sprintf("mobilectl run %s", runID),
		Attachments: []slack.Attachment{attachment},
	}
}
