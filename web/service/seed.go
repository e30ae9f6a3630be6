package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/blogblazor/blog/config"
	"github.com/blogblazor/blog/database/model"
	"github.com/blogblazor/blog/logger"
)

const (
	SeedArticleTitle = "The Rise of AI in Everyday Life: Transforming the Future"
	seedArticleBody  = "<p>Artificial intelligence has quietly moved from research labs into the tools we use every day. " +
		"From the phone in your pocket recommending a faster route home to the email client that filters spam before you see it, " +
		"AI is shaping routine decisions.</p>" +
		"<p>In healthcare, models help radiologists spot anomalies earlier. In education, adaptive platforms tailor exercises " +
		"to each learner. Retailers forecast demand and trim waste, and smart home devices learn our habits to save energy.</p>" +
		"<p>The change brings hard questions about privacy, bias and accountability. The future will be defined less by what " +
		"AI can do and more by how thoughtfully we choose to use it.</p>"
	seedArticleWindow = 7 * 24 * time.Hour
)

type SeedOutcome string

const (
	SeedCreated SeedOutcome = "created"
	SeedExists  SeedOutcome = "exists"
	SeedSkipped SeedOutcome = "skipped"
	SeedFailed  SeedOutcome = "failed"
)

// SeedStep is the result of one bootstrap step.
type SeedStep struct {
	Name    string
	Outcome SeedOutcome
	Detail  string
}

func (s SeedStep) String() string {
	if s.Detail == "" {
		return fmt.Sprintf("%s: %s", s.Name, s.Outcome)
	}
	return fmt.Sprintf("%s: %s (%s)", s.Name, s.Outcome, s.Detail)
}

// SeedReport aggregates every step of a seeding run.
type SeedReport struct {
	Steps []SeedStep
}

func (r *SeedReport) add(name string, outcome SeedOutcome, detail string) SeedStep {
	step := SeedStep{Name: name, Outcome: outcome, Detail: detail}
	r.Steps = append(r.Steps, step)
	return step
}

// Failed reports whether any step failed or was skipped.
func (r *SeedReport) Failed() bool {
	for _, s := range r.Steps {
		if s.Outcome == SeedFailed || s.Outcome == SeedSkipped {
			return true
		}
	}
	return false
}

// Step returns the step with the given name.
func (r *SeedReport) Step(name string) (SeedStep, bool) {
	for _, s := range r.Steps {
		if s.Name == name {
			return s, true
		}
	}
	return SeedStep{}, false
}

func (r *SeedReport) String() string {
	lines := make([]string, 0, len(r.Steps))
	for _, s := range r.Steps {
		lines = append(lines, s.String())
	}
	return strings.Join(lines, "\n")
}

// Seeder provisions roles, the admin and contributor accounts, and the
// welcome article. Every step is create-if-absent.
type Seeder struct {
	identity IdentityStore
	articles *ArticleService
	now      func() time.Time
}

func NewSeeder(identity IdentityStore, articles *ArticleService) *Seeder {
	return &Seeder{identity: identity, articles: articles, now: time.Now}
}

// Seed runs every step; a failing step never stops the ones after it.
func (s *Seeder) Seed(ctx context.Context, admin, contributor config.SeedAccount) *SeedReport {
	report := &SeedReport{}

	for _, role := range []string{model.AdminRoleName, model.ContributorRoleName} {
		outcome, detail := s.ensureRole(ctx, role)
		s.log(report.add("role "+role, outcome, detail))
	}

	s.log(s.ensureAccount(ctx, report, "admin account", admin, model.AdminRoleName))
	s.log(s.ensureAccount(ctx, report, "contributor account", contributor, model.ContributorRoleName))
	s.log(s.ensureArticle(ctx, report, contributor))

	return report
}

func (s *Seeder) log(step SeedStep) {
	switch step.Outcome {
	case SeedFailed, SeedSkipped:
		logger.Warning("seed ", step.String())
	default:
		logger.Info("seed ", step.String())
	}
}

func (s *Seeder) ensureRole(ctx context.Context, role string) (SeedOutcome, string) {
	exists, err := s.identity.RoleExists(ctx, role)
	if err != nil {
		return SeedFailed, err.Error()
	}
	if exists {
		return SeedExists, ""
	}
	if err := s.identity.CreateRole(ctx, role); err != nil {
		return SeedFailed, err.Error()
	}
	return SeedCreated, ""
}

func (s *Seeder) ensureAccount(ctx context.Context, report *SeedReport, name string, acc config.SeedAccount, role string) SeedStep {
	if !acc.Complete() {
		return report.add(name, SeedSkipped, "missing "+strings.Join(acc.Missing, ", "))
	}

	outcome := SeedExists
	user, err := s.identity.FindByEmail(ctx, acc.Email)
	if errors.Is(err, ErrUserNotFound) {
		user = &model.User{
			Username:  acc.Email,
			Email:     acc.Email,
			FirstName: acc.FirstName,
			LastName:  acc.LastName,
		}
		if err := s.identity.Create(ctx, user, acc.Password); err != nil {
			return report.add(name, SeedFailed, err.Error())
		}
		outcome = SeedCreated
	} else if err != nil {
		return report.add(name, SeedFailed, err.Error())
	}

	inRole, err := s.identity.IsInRole(ctx, user, role)
	if err != nil {
		return report.add(name, SeedFailed, err.Error())
	}
	if !inRole {
		if err := s.identity.AddToRole(ctx, user, role); err != nil {
			return report.add(name, SeedFailed, err.Error())
		}
	}
	return report.add(name, outcome, user.Username)
}

func (s *Seeder) ensureArticle(ctx context.Context, report *SeedReport, contributor config.SeedAccount) SeedStep {
	const name = "seed article"
	exists, err := s.articles.ArticleExistsWithTitle(ctx, SeedArticleTitle)
	if err != nil {
		return report.add(name, SeedFailed, err.Error())
	}
	if exists {
		return report.add(name, SeedExists, "")
	}
	if contributor.Email == "" {
		return report.add(name, SeedSkipped, "missing CONTRIBUTOR_EMAIL")
	}
	owner, err := s.identity.FindByEmail(ctx, contributor.Email)
	if err != nil {
		return report.add(name, SeedSkipped, "contributor account unavailable")
	}

	now := s.now()
	article := &model.Article{
		Title:     SeedArticleTitle,
		Body:      seedArticleBody,
		StartDate: now,
		EndDate:   now.Add(seedArticleWindow),
	}
	if !s.articles.CreateArticle(ctx, article, owner.Username) {
		return report.add(name, SeedFailed, "article rejected")
	}
	return report.add(name, SeedCreated, fmt.Sprintf("id %d", article.ArticleId))
}
