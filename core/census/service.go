package census

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/pkg/errors"

	"github.com/trezcool/censo/core"
	"github.com/trezcool/censo/core/school"
)

// FallbackSample makes the dashboard show SampleSubmissions when nothing is stored.
const FallbackSample = "sample"

var nowFunc = time.Now // mockable

type Service struct {
	conf     *core.Config
	registry *school.Registry
	store    *Store
	drafts   *Drafts
	mailer   core.EmailService
	logger   core.Logger
	fallback []Submission
}

func NewService(conf *core.Config, registry *school.Registry, store *Store, mailer core.EmailService, logger core.Logger) *Service {
	fallback := []Submission{}
	if conf.Census.Fallback == FallbackSample {
		fallback = SampleSubmissions()
	}
	return &Service{
		conf:     conf,
		registry: registry,
		store:    store,
		drafts:   NewDrafts(registry, conf.Census.DraftTTL),
		mailer:   mailer,
		logger:   logger,
		fallback: fallback,
	}
}

func (svc *Service) Registry() *school.Registry { return svc.registry }

func (svc *Service) NewDraft() *Draft { return svc.drafts.New() }

func (svc *Service) GetDraft(id string) (*Draft, error) { return svc.drafts.Get(id) }

func (svc *Service) OpenDrafts() int { return svc.drafts.Count() }

// Submit finalizes the draft, persists it and drops the draft. Nothing is stored when
// the draft has no school selected.
func (svc *Service) Submit(ctx context.Context, draftID, submitter string) (Submission, error) {
	d, err := svc.drafts.Get(draftID)
	if err != nil {
		return Submission{}, err
	}
	sub, err := svc.submit(ctx, d, submitter)
	if err != nil {
		return Submission{}, err
	}
	svc.drafts.Delete(draftID)
	return sub, nil
}

// SubmitForm persists a complete form posted in one request.
func (svc *Service) SubmitForm(ctx context.Context, ns NewSubmission) (Submission, error) {
	d := NewDraft(uuid.NewString(), svc.registry)
	if err := d.Apply(ns); err != nil {
		return Submission{}, err
	}
	return svc.submit(ctx, d, ns.SubmittedBy)
}

func (svc *Service) submit(ctx context.Context, d *Draft, submitter string) (Submission, error) {
	sub, err := d.Finalize(uuid.NewString(), submitter, nowFunc().UTC())
	if err != nil {
		return Submission{}, err
	}
	if err := svc.store.Append(ctx, sub); err != nil {
		d.Reopen()
		return Submission{}, err
	}
	svc.notify(sub)
	return sub, nil
}

func (svc *Service) notify(sub Submission) {
	if svc.mailer == nil || len(svc.conf.Census.NotifyRecipients) == 0 {
		return
	}
	msg, err := NewReceiptMessage(svc.conf, sub, svc.conf.Census.Location())
	if err != nil {
		// the receipt still goes out, without the attachment
		svc.logger.Warn("preparing submission receipt", err)
	}
	svc.mailer.SendMessages(msg)
}

// Submissions returns the stored submissions, or the configured fallback.
func (svc *Service) Submissions(ctx context.Context) []Submission {
	return svc.store.LoadAll(ctx, svc.fallback)
}

func (svc *Service) GetSubmission(ctx context.Context, id string) (Submission, error) {
	for _, s := range svc.Submissions(ctx) {
		if s.ID == id {
			return s, nil
		}
	}
	return Submission{}, ErrNotFound
}

func (svc *Service) Filter(ctx context.Context, qf QueryFilter) []Submission {
	return Filter(svc.Submissions(ctx), qf)
}

func (svc *Service) Summary(ctx context.Context) Summary {
	return Summarize(svc.Submissions(ctx), svc.registry.Count())
}

// Import replaces every stored submission. Each record is rebuilt through a draft so
// it holds the same invariants as a submitted form; the first invalid record aborts the
// import and nothing is stored. Missing ids are generated.
func (svc *Service) Import(ctx context.Context, subs []Submission) error {
	imported := make([]Submission, 0, len(subs))
	for i, sub := range subs {
		clean, err := svc.rebuild(sub)
		if err != nil {
			return errors.Wrapf(err, "submission %d", i)
		}
		imported = append(imported, clean)
	}
	return errors.Wrap(svc.store.ReplaceAll(ctx, imported), "importing submissions")
}

func (svc *Service) rebuild(sub Submission) (Submission, error) {
	if sub.SelectedSchool == nil {
		return Submission{}, fieldErr("selectedSchool", ErrNoSchool)
	}
	if len(sub.Classrooms) != sub.ClassroomsCount {
		return Submission{}, fieldErr("classrooms", errCountMismatch)
	}
	seen := make(map[string]bool, len(sub.TeachingModalities))
	for _, m := range sub.TeachingModalities {
		if seen[m] {
			return Submission{}, fieldErr("teachingModalities", errDuplicateModality)
		}
		seen[m] = true
	}

	// an INEP missing from the registry clears the school and fails Finalize
	d := NewDraft(sub.ID, svc.registry)
	err := d.Apply(NewSubmission{
		SchoolINEP:         sub.SchoolINEP(),
		ClassroomsCount:    sub.ClassroomsCount,
		Classrooms:         sub.Classrooms,
		TeachingModalities: sub.TeachingModalities,
		Technology:         sub.Technology,
	})
	if err != nil {
		return Submission{}, err
	}

	id := sub.ID
	if id == "" {
		id = uuid.NewString()
	}
	clean, err := d.Finalize(id, sub.SubmittedBy, sub.SubmittedAt)
	if err != nil {
		return Submission{}, err
	}
	// Apply numbers the classrooms; imported ids are kept
	for i := range clean.Classrooms {
		if sub.Classrooms[i].ID != "" {
			clean.Classrooms[i].ID = sub.Classrooms[i].ID
		}
	}
	return clean, nil
}

func (svc *Service) Subscribe() (<-chan Event, func()) { return svc.store.Subscribe() }

// Watch polls the store for external changes until ctx is done.
func (svc *Service) Watch(ctx context.Context) error {
	return svc.store.Watch(ctx, svc.conf.Census.PollInterval)
}
