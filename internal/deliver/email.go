package deliver

import (
	"context"
	"fmt"
	"log/slog"
	"net/smtp"
	"path/filepath"
	"strings"
	"time"

	"github.com/jordan-wright/email"
	"go.opentelemetry.io/otel/codes"

	"sodatrack-backend/internal/summary"
	"sodatrack-backend/lib/timezone"
)

type SmtpConfig struct {
	Server       string
	Port         int
	EmailAddress string
	Password     string
}

type EmailConfig struct {
	Smtp SmtpConfig
	// From defaults to the smtp account address.
	From string
	To   []string
}

func (c EmailConfig) withDefaults() EmailConfig {
	if c.Smtp.Server == "" {
		c.Smtp.Server = "smtp.gmail.com"
	}
	if c.Smtp.Port == 0 {
		c.Smtp.Port = 587
	}
	if c.From == "" {
		c.From = c.Smtp.EmailAddress
	}
	return c
}

// EmailSender mails run reports to the configured recipients.
type EmailSender struct {
	config EmailConfig
}

func NewEmailSender(config EmailConfig) (*EmailSender, error) {
	config = config.withDefaults()
	if config.Smtp.EmailAddress == "" {
		return nil, fmt.Errorf("no smtp account configured")
	}
	if len(config.To) == 0 {
		return nil, fmt.Errorf("no email recipients configured")
	}
	return &EmailSender{config: config}, nil
}

func (s *EmailSender) Name() string {
	return "email"
}

func (s *EmailSender) newMail(subject, body string) *email.Email {
	mail := email.NewEmail()
	mail.From = s.config.From
	mail.To = s.config.To
	mail.Subject = subject
	mail.Text = []byte(body)
	return mail
}

func (s *EmailSender) send(mail *email.Email) error {
	addr := fmt.Sprintf("%s:%d", s.config.Smtp.Server, s.config.Smtp.Port)
	err := mail.Send(addr, smtp.PlainAuth(
		"", s.config.Smtp.EmailAddress, s.config.Smtp.Password, s.config.Smtp.Server,
	))
	if err != nil && strings.Contains(err.Error(), "server doesn't support AUTH") {
		return mail.Send(addr, nil)
	}
	return err
}

func (s *EmailSender) SendWeeklyReport(ctx context.Context, result WeeklyResult) error {
	ctx, span := tracer.Start(ctx, "email:SendWeeklyReport")
	defer span.End()

	mail := s.newMail(weeklySubject(result), weeklyBody(result, timezone.Now()))
	if result.DatasetPath != "" {
		_, err := mail.AttachFile(result.DatasetPath)
		if err != nil {
			slog.WarnContext(ctx, "could not attach dataset", "path", result.DatasetPath, "err", err)
		}
	}

	err := s.send(mail)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "failed to send email")
		return err
	}
	slog.InfoContext(ctx, "sent weekly report email", "to", strings.Join(s.config.To, ", "))
	return nil
}

func (s *EmailSender) SendMonthlyReport(ctx context.Context, result MonthlyResult) error {
	ctx, span := tracer.Start(ctx, "email:SendMonthlyReport")
	defer span.End()

	mail := s.newMail(monthlySubject(result), monthlyBody(result, timezone.Now()))
	if result.DatasetPath != "" {
		_, err := mail.AttachFile(result.DatasetPath)
		if err != nil {
			slog.WarnContext(ctx, "could not attach dataset", "path", result.DatasetPath, "err", err)
		}
	}

	err := s.send(mail)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "failed to send email")
		return err
	}
	slog.InfoContext(ctx, "sent monthly report email", "to", strings.Join(s.config.To, ", "))
	return nil
}

func (s *EmailSender) SendProgress(ctx context.Context, progress Progress) error {
	ctx, span := tracer.Start(ctx, "email:SendProgress")
	defer span.End()

	err := s.send(s.newMail(progressSubject(progress), progressBody(progress, timezone.Now())))
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "failed to send email")
		return err
	}
	slog.InfoContext(ctx, "sent progress email", "stores_completed", progress.StoresCompleted)
	return nil
}

func (s *EmailSender) SendFailure(ctx context.Context, message string, _ summary.Snapshot) error {
	ctx, span := tracer.Start(ctx, "email:SendFailure")
	defer span.End()

	body := fmt.Sprintf(`The Publix price collection job has failed.

Error details:
%s

Please check the logs and system status.

---
This is an automated error notification from the Publix price collection system.
`, message)

	err := s.send(s.newMail("ERROR: Publix Price Scraper Failed", body))
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "failed to send email")
		return err
	}
	slog.InfoContext(ctx, "sent failure email", "to", strings.Join(s.config.To, ", "))
	return nil
}

const mailTimeFormat = "2006-01-02 15:04:05"

func weeklySubject(result WeeklyResult) string {
	return fmt.Sprintf(
		"Publix Price Scraper - Week %d Report (%s) - %d products",
		result.Week, result.MonthYear, result.ProductCount,
	)
}

func weeklyBody(result WeeklyResult, now time.Time) string {
	var b strings.Builder
	b.WriteString("Publix Grocery Store Price Scraping - Weekly Report\n\n")
	fmt.Fprintf(&b, "Week: %d\n", result.Week)
	fmt.Fprintf(&b, "Month: %s\n", result.MonthYear)
	fmt.Fprintf(&b, "Date: %s\n\n", now.Format(mailTimeFormat))
	b.WriteString("Summary:\n")
	fmt.Fprintf(&b, "- Products collected: %d\n", result.ProductCount)
	fmt.Fprintf(&b, "- New products: %d\n", result.NewCount)
	fmt.Fprintf(&b, "- Stores covered: %d\n\n", result.StoreCount)
	fmt.Fprintf(&b, "Google Sheet link:\n%s\n", sheetUrlOrFallback(result.SheetUrl))
	if result.DatasetPath != "" {
		fmt.Fprintf(&b, "\nA backup copy of the dataset is attached (%s).\n", filepath.Base(result.DatasetPath))
	}
	b.WriteString("\n---\nThis is an automated message from the Publix price collection system.\n")
	return b.String()
}

func monthlySubject(result MonthlyResult) string {
	return fmt.Sprintf(
		"Publix Price Scraper - Monthly Report (%s) - %d products",
		result.MonthYear, result.ProductCount,
	)
}

func monthlyBody(result MonthlyResult, now time.Time) string {
	weeks := make([]string, len(result.WeeksCovered))
	for i, week := range result.WeeksCovered {
		weeks[i] = fmt.Sprintf("%d", week)
	}

	var b strings.Builder
	b.WriteString("Publix Grocery Store Price Scraping - Monthly Report\n\n")
	fmt.Fprintf(&b, "Month: %s\n", result.MonthYear)
	fmt.Fprintf(&b, "Date: %s\n\n", now.Format(mailTimeFormat))
	b.WriteString("Summary:\n")
	fmt.Fprintf(&b, "- Products collected: %d\n", result.ProductCount)
	fmt.Fprintf(&b, "- Stores covered: %d\n", result.StoreCount)
	fmt.Fprintf(&b, "- Weeks covered: %s\n\n", strings.Join(weeks, ", "))
	fmt.Fprintf(&b, "Google Sheet link:\n%s\n", sheetUrlOrFallback(result.SheetUrl))
	if result.DatasetPath != "" {
		fmt.Fprintf(&b, "\nA backup copy of the dataset is attached (%s).\n", filepath.Base(result.DatasetPath))
	}
	b.WriteString("\n---\nThis is an automated message from the Publix price collection system.\n")
	return b.String()
}

func progressSubject(progress Progress) string {
	return fmt.Sprintf(
		"Publix Scraper Progress - Week %d (%s) - %.1f%% Complete",
		progress.Week, progress.MonthYear, progress.Percent(),
	)
}

func progressBody(progress Progress, now time.Time) string {
	remaining := "unknown"
	if progress.Remaining > 0 {
		remaining = progress.Remaining.Round(time.Minute).String()
	}

	var b strings.Builder
	b.WriteString("Publix Grocery Store Price Scraping - Progress Update\n\n")
	fmt.Fprintf(&b, "Week: %d\n", progress.Week)
	fmt.Fprintf(&b, "Month: %s\n", progress.MonthYear)
	fmt.Fprintf(&b, "Update time: %s\n\n", now.Format(mailTimeFormat))
	b.WriteString("Progress summary:\n")
	fmt.Fprintf(&b, "- Stores completed: %d / %d\n", progress.StoresCompleted, progress.StoresTotal)
	fmt.Fprintf(&b, "- Stores remaining: %d\n", progress.StoresTotal-progress.StoresCompleted)
	fmt.Fprintf(&b, "- Progress: %.1f%%\n", progress.Percent())
	fmt.Fprintf(&b, "- Products found so far: %d\n", progress.ProductsFound)
	fmt.Fprintf(&b, "- Estimated time remaining: %s\n\n", remaining)
	fmt.Fprintf(&b, "Google Sheet link:\n%s\n", sheetUrlOrFallback(progress.SheetUrl))
	b.WriteString("\n---\nThis is an automated progress update from the Publix price collection system.\n")
	return b.String()
}

func sheetUrlOrFallback(url string) string {
	if url == "" {
		return SheetUnavailable
	}
	return url
}
