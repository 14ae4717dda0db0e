package milestone

import (
	"context"
	"fmt"
	"net/mail"
	"sort"
	"strings"

	"github.com/pkg/errors"

	"github.com/whenitsdone1/capstone2024/core"
)

const (
	tmplSubmissionReceived = "submission_received"
	tmplMilestoneReminder  = "milestone_reminder"
)

type (
	Service interface {
		// Resolve picks the milestone of a term start date against today's date.
		Resolve(ctx context.Context, termStart string, regime Regime) (ID, error)

		EnsureCollection(ctx context.Context, id ID) error
		EnsureAllCollections(ctx context.Context) error

		Create(ctx context.Context, p Payload) (string, ID, error)
		// Read looks the record up in the milestone of termStart.
		// Without termStart every milestone is probed in order, stopping at the first hit.
		Read(ctx context.Context, id, termStart string, regime Regime) (Record, ID, error)
		ReadFrom(ctx context.Context, m ID, id string) (Record, error)
		Update(ctx context.Context, id, termStart string, regime Regime, p Payload) (Record, error)
		Delete(ctx context.Context, id, termStart string, regime Regime) error

		ListSummaries(ctx context.Context) ([]Summary, error)
		MetricsFor(ctx context.Context, email string) (Metrics, error)

		SendReminder(to []mail.Address, m ID) error
	}

	service struct {
		backend Backend
		dates   DateSource
		cleaner *Cleaner
		mailSvc core.EmailService
		logger  core.Logger
		conf    *core.Config

		syncMail bool // send receipts before returning (tests)
	}
)

var _ Service = (*service)(nil)

func NewService(
	backend Backend,
	dates DateSource,
	cleaner *Cleaner,
	mailSvc core.EmailService,
	logger core.Logger,
	conf *core.Config,
) Service {
	return &service{
		backend: backend,
		dates:   dates,
		cleaner: cleaner,
		mailSvc: mailSvc,
		logger:  logger,
		conf:    conf,
	}
}

func dateValidationError(err error) error {
	cause := errors.Cause(err)
	return core.NewValidationError(cause, core.FieldError{Field: FieldTermStartDate, Error: cause.Error()})
}

func (svc *service) Resolve(ctx context.Context, termStart string, regime Regime) (ID, error) {
	m, err := ResolveFrom(ctx, svc.dates, termStart, regime)
	if err != nil {
		switch errors.Cause(err) {
		case ErrMissingDate, ErrInvalidDateFormat:
			return "", dateValidationError(err)
		case ErrDateSourceUnavailable:
			svc.logger.Error("resolving milestone", err)
			return "", errors.Wrap(ErrNoActiveMilestone, err.Error())
		}
		return "", err
	}
	return m, nil
}

func (svc *service) session(ctx context.Context) (Session, error) {
	sess, err := svc.backend.Authenticate(ctx)
	if err != nil {
		return nil, errors.Wrap(err, "authenticating to backend")
	}
	return sess, nil
}

func (svc *service) EnsureCollection(ctx context.Context, id ID) error {
	sess, err := svc.session(ctx)
	if err != nil {
		return err
	}
	return svc.ensureCollection(ctx, sess, id)
}

func (svc *service) EnsureAllCollections(ctx context.Context) error {
	sess, err := svc.session(ctx)
	if err != nil {
		return err
	}
	for _, id := range All {
		if err := svc.ensureCollection(ctx, sess, id); err != nil {
			return err
		}
	}
	return nil
}

// ensureCollection patches the collection named after id with the registry schema, creating it when absent.
func (svc *service) ensureCollection(ctx context.Context, sess Session, id ID) error {
	flds, err := FieldsFor(id)
	if err != nil {
		return err
	}
	want := Collection{Name: string(id), Schema: flds}

	cols, err := sess.ListCollections(ctx)
	if err != nil {
		return errors.Wrap(err, "listing collections")
	}
	for _, c := range cols {
		if c.Name == want.Name {
			if _, err := sess.UpdateCollection(ctx, c.ID, want); err != nil {
				return errors.Wrapf(err, "updating collection %s", id)
			}
			return nil
		}
	}
	if _, err := sess.CreateCollection(ctx, want); err != nil {
		return errors.Wrapf(err, "creating collection %s", id)
	}
	svc.logger.Info(fmt.Sprintf("created collection %s", id))
	return nil
}

func (svc *service) Create(ctx context.Context, p Payload) (string, ID, error) {
	p = p.clone()
	if p.String(FieldAcademicPeriod) == "" {
		p[FieldAcademicPeriod] = string(RegimeTerm)
	}
	regime := ParseRegime(p.String(FieldAcademicPeriod))

	m, err := svc.Resolve(ctx, p.String(FieldTermStartDate), regime)
	if err != nil {
		return "", "", err
	}

	data, dropped, err := svc.cleaner.Clean(m, p, false)
	if err != nil {
		return "", m, err
	}
	if len(dropped) > 0 {
		svc.logger.Debug(fmt.Sprintf("%s: dropped fields not in schema: %s", m, strings.Join(dropped, ", ")))
	}

	sess, err := svc.session(ctx)
	if err != nil {
		return "", m, err
	}
	if err = svc.ensureCollection(ctx, sess, m); err != nil {
		return "", m, err
	}
	rec, err := sess.CreateRecord(ctx, string(m), data)
	if err != nil {
		return "", m, errors.Wrapf(err, "creating %s record", m)
	}

	if svc.conf.NotifySubmitters {
		if addr := rec.String(FieldEmail); addr != "" {
			if svc.syncMail {
				svc.sendReceipt(rec, m)
			} else {
				go svc.sendReceipt(rec, m)
			}
		}
	}
	return rec.ID(), m, nil
}

func (svc *service) Read(ctx context.Context, id, termStart string, regime Regime) (Record, ID, error) {
	if strings.TrimSpace(termStart) != "" {
		m, err := svc.Resolve(ctx, termStart, regime)
		if err != nil {
			return nil, "", err
		}
		rec, err := svc.ReadFrom(ctx, m, id)
		return rec, m, err
	}

	sess, err := svc.session(ctx)
	if err != nil {
		return nil, "", err
	}
	for _, m := range All {
		rec, err := sess.GetRecord(ctx, string(m), id)
		if err == nil {
			return rec, m, nil
		}
		if !IsNotFound(err) {
			return nil, "", errors.Wrapf(err, "reading %s record %s", m, id)
		}
	}
	return nil, "", ErrNotFound
}

func (svc *service) ReadFrom(ctx context.Context, m ID, id string) (Record, error) {
	if !m.Valid() {
		return nil, errors.Wrapf(ErrUnknownMilestone, "%q", m)
	}
	sess, err := svc.session(ctx)
	if err != nil {
		return nil, err
	}
	rec, err := sess.GetRecord(ctx, string(m), id)
	if err != nil {
		return nil, errors.Wrapf(err, "reading %s record %s", m, id)
	}
	return rec, nil
}

func (svc *service) Update(ctx context.Context, id, termStart string, regime Regime, p Payload) (Record, error) {
	if strings.TrimSpace(termStart) == "" {
		return nil, dateValidationError(ErrMissingDate)
	}
	m, err := svc.Resolve(ctx, termStart, regime)
	if err != nil {
		return nil, err
	}

	data, dropped, err := svc.cleaner.Clean(m, p, true)
	if err != nil {
		return nil, err
	}
	if len(data) == 0 {
		return nil, core.NewValidationError(ErrEmptyUpdate)
	}
	if len(dropped) > 0 {
		svc.logger.Debug(fmt.Sprintf("%s: dropped fields not in schema: %s", m, strings.Join(dropped, ", ")))
	}

	sess, err := svc.session(ctx)
	if err != nil {
		return nil, err
	}
	rec, err := sess.UpdateRecord(ctx, string(m), id, data)
	if err != nil {
		return nil, errors.Wrapf(err, "updating %s record %s", m, id)
	}
	return rec, nil
}

func (svc *service) Delete(ctx context.Context, id, termStart string, regime Regime) error {
	if strings.TrimSpace(termStart) == "" {
		return dateValidationError(ErrMissingDate)
	}
	m, err := svc.Resolve(ctx, termStart, regime)
	if err != nil {
		return err
	}

	sess, err := svc.session(ctx)
	if err != nil {
		return err
	}
	if err = sess.DeleteRecord(ctx, string(m), id); err != nil {
		return errors.Wrapf(err, "deleting %s record %s", m, id)
	}
	return nil
}

// scan lists every milestone collection. A failing collection is logged and skipped;
// an error is only returned when all of them fail.
func (svc *service) scan(ctx context.Context, fn func(m ID, recs []Record)) error {
	sess, err := svc.session(ctx)
	if err != nil {
		return err
	}
	var lastErr error
	var failed int
	for _, m := range All {
		recs, err := sess.ListRecords(ctx, string(m))
		if err != nil {
			failed++
			lastErr = errors.Wrapf(err, "listing %s records", m)
			svc.logger.Error(lastErr.Error(), lastErr)
			continue
		}
		fn(m, recs)
	}
	if failed == len(All) {
		return lastErr
	}
	return nil
}

func (svc *service) ListSummaries(ctx context.Context) ([]Summary, error) {
	summaries := make([]Summary, 0)
	err := svc.scan(ctx, func(m ID, recs []Record) {
		for _, rec := range recs {
			summaries = append(summaries, Summary{
				ID:             rec.ID(),
				Name:           rec.String(FieldName),
				Email:          rec.String(FieldEmail),
				Milestone:      m,
				SubmissionDate: rec.SubmissionDate(),
			})
		}
	})
	if err != nil {
		return nil, err
	}
	sort.SliceStable(summaries, func(i, j int) bool {
		return summaries[i].SubmissionDate > summaries[j].SubmissionDate
	})
	return summaries, nil
}

// MetricsFor collects the submissions whose email equals `email` exactly.
func (svc *service) MetricsFor(ctx context.Context, email string) (Metrics, error) {
	metrics := Metrics{Email: email, Submissions: make([]SubmissionMetrics, 0)}
	err := svc.scan(ctx, func(m ID, recs []Record) {
		boolFlds := BooleanFields(m)
		for _, rec := range recs {
			if addr, _ := rec[FieldEmail].(string); addr != email {
				continue
			}
			sm := SubmissionMetrics{
				RecordID:         rec.ID(),
				Milestone:        m,
				TermStartDate:    rec.String(FieldTermStartDate),
				StartTime:        rec.String(FieldStartTime),
				CompletionTime:   rec.String(FieldCompletionTime),
				TimeTakenMinutes: timeTaken(rec.String(FieldStartTime), rec.String(FieldCompletionTime)),
				BooleanResponses: make(map[string]bool, len(boolFlds)),
			}
			for _, name := range boolFlds {
				if _, ok := rec[name]; ok {
					sm.BooleanResponses[name] = rec.Bool(name)
				}
			}
			metrics.Submissions = append(metrics.Submissions, sm)
		}
	})
	if err != nil {
		return Metrics{}, err
	}
	return metrics, nil
}

func timeTaken(start, completion string) *float64 {
	if start == "" || completion == "" {
		return nil
	}
	st, err := ParseDateTime(start)
	if err != nil {
		return nil
	}
	ct, err := ParseDateTime(completion)
	if err != nil {
		return nil
	}
	minutes := ct.Sub(st).Minutes()
	return &minutes
}

func (svc *service) SendReminder(to []mail.Address, m ID) error {
	if len(to) == 0 {
		return errors.New("no recipients")
	}
	if !m.Valid() {
		return errors.Wrapf(ErrUnknownMilestone, "%q", m)
	}
	msg := &core.EmailMessage{
		To:           to,
		Subject:      fmt.Sprintf("Milestone %d Reporting Required", m.Number()),
		TemplateName: tmplMilestoneReminder,
		TemplateData: map[string]interface{}{
			"Milestone": m.Number(),
			"Checklist": checklistFor(m),
		},
	}
	svc.mailSvc.SendMessages(msg)
	return nil
}

func (svc *service) sendReceipt(rec Record, m ID) {
	msg := &core.EmailMessage{
		To:           []mail.Address{{Name: rec.String(FieldName), Address: rec.String(FieldEmail)}},
		Subject:      fmt.Sprintf("Milestone %d submission received", m.Number()),
		TemplateName: tmplSubmissionReceived,
		TemplateData: map[string]interface{}{
			"Name":      rec.String(FieldName),
			"Subject":   rec.String("subject_code_and_name"),
			"Milestone": m.Number(),
			"RecordID":  rec.ID(),
		},
	}
	svc.mailSvc.SendMessages(msg)
}

func checklistFor(m ID) []string {
	var items []string
	for _, f := range registry[m] {
		if f.Kind == KindBool {
			items = append(items, f.Description)
		}
	}
	return items
}
