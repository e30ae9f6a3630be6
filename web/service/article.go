package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/blogblazor/blog/database"
	"github.com/blogblazor/blog/database/model"
	"github.com/blogblazor/blog/logger"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

var (
	ErrInvalidDateRange = errors.New("end date is before start date")
	ErrMissingDates     = errors.New("start and end dates are required")
	ErrEmptyTitle       = errors.New("title is required")
	ErrUnknownUser      = errors.New("unknown user")
	ErrArticleNotFound  = errors.New("article not found")
)

// ArticleService owns every read and write of articles. Its methods report
// failure through bool or optional results and log the reason.
//
// EditArticle and DeleteArticle do not check ownership. Callers must call
// CanEditArticle immediately before them.
type ArticleService struct {
	db        *gorm.DB
	identity  IdentityStore
	sanitizer *Sanitizer
	now       func() time.Time
}

func NewArticleService(db *gorm.DB, identity IdentityStore, sanitizer *Sanitizer) *ArticleService {
	return &ArticleService{
		db:        db,
		identity:  identity,
		sanitizer: sanitizer,
		now:       time.Now,
	}
}

// SetClock replaces the wall clock, for tests.
func (s *ArticleService) SetClock(now func() time.Time) {
	s.now = now
}

func validateArticle(a *model.Article) error {
	if strings.TrimSpace(a.Title) == "" {
		return ErrEmptyTitle
	}
	if a.StartDate.IsZero() || a.EndDate.IsZero() {
		return ErrMissingDates
	}
	if a.EndDate.Before(a.StartDate) {
		return ErrInvalidDateRange
	}
	return nil
}

// ListVisibleArticles returns articles whose window contains the current
// time, newest first. The window is evaluated on every call.
func (s *ArticleService) ListVisibleArticles(ctx context.Context) []model.Article {
	now := s.now().UTC()
	articles := make([]model.Article, 0)
	err := s.db.WithContext(ctx).
		Preload("Contributor").
		Where("start_date <= ? AND end_date >= ?", now, now).
		Order("create_date DESC").
		Order("article_id DESC").
		Find(&articles).Error
	if err != nil {
		logger.Warning("list visible articles failed:", err)
		return []model.Article{}
	}
	return articles
}

// ListAllArticles returns every article regardless of its window.
func (s *ArticleService) ListAllArticles(ctx context.Context) []model.Article {
	articles := make([]model.Article, 0)
	if err := s.db.WithContext(ctx).Order("article_id ASC").Find(&articles).Error; err != nil {
		logger.Warning("list articles failed:", err)
		return []model.Article{}
	}
	return articles
}

func (s *ArticleService) ListArticlesByContributor(ctx context.Context, username string) []model.Article {
	articles := make([]model.Article, 0)
	err := s.db.WithContext(ctx).
		Where("contributor_username = ?", username).
		Order("create_date DESC").
		Find(&articles).Error
	if err != nil {
		logger.Warningf("list articles of %s failed: %v", username, err)
		return []model.Article{}
	}
	return articles
}

func (s *ArticleService) GetArticleById(ctx context.Context, id int) (*model.Article, bool) {
	article := &model.Article{}
	err := s.db.WithContext(ctx).Preload("Contributor").First(article, id).Error
	if err != nil {
		if !database.IsNotFound(err) {
			logger.Warningf("get article %d failed: %v", id, err)
		}
		return nil, false
	}
	return article, true
}

// CreateArticle validates, sanitizes and stores article on behalf of
// authorUsername. On success the stored values are copied back into article.
func (s *ArticleService) CreateArticle(ctx context.Context, article *model.Article, authorUsername string) bool {
	if err := validateArticle(article); err != nil {
		logger.Warningf("create article rejected: %v", err)
		return false
	}

	author, err := s.identity.FindByName(ctx, authorUsername)
	if err != nil {
		if errors.Is(err, ErrUserNotFound) {
			err = ErrUnknownUser
		}
		logger.Warningf("create article rejected for %q: %v", authorUsername, err)
		return false
	}

	record := model.Article{
		Title:               article.Title,
		Body:                s.sanitizer.Sanitize(article.Body),
		CreateDate:          s.now().UTC(),
		StartDate:           article.StartDate.UTC(),
		EndDate:             article.EndDate.UTC(),
		ContributorId:       author.Id,
		ContributorUsername: author.Username,
	}
	if err := s.db.WithContext(ctx).Omit(clause.Associations).Create(&record).Error; err != nil {
		logger.Warning("create article failed:", err)
		return false
	}

	*article = record
	return true
}

// CanEditArticle is true when the article exists and the requester owns it
// or is an admin. A missing article yields false.
func (s *ArticleService) CanEditArticle(ctx context.Context, articleId int, requestingUsername string, requesterIsAdmin bool) bool {
	var owners []string
	err := s.db.WithContext(ctx).Model(&model.Article{}).
		Where("article_id = ?", articleId).
		Limit(1).
		Pluck("contributor_username", &owners).Error
	if err != nil {
		logger.Warningf("authorization lookup for article %d failed: %v", articleId, err)
		return false
	}
	if len(owners) == 0 {
		return false
	}
	return owners[0] == requestingUsername || requesterIsAdmin
}

// EditArticle overwrites title, body, window and contributor of an existing
// article. The contributor becomes the requesting user. CreateDate is never
// touched.
func (s *ArticleService) EditArticle(ctx context.Context, id int, updated *model.Article, requestingUsername string) bool {
	existing := &model.Article{}
	if err := s.db.WithContext(ctx).First(existing, id).Error; err != nil {
		if database.IsNotFound(err) {
			err = ErrArticleNotFound
		}
		logger.Warningf("edit article %d rejected: %v", id, err)
		return false
	}
	if err := validateArticle(updated); err != nil {
		logger.Warningf("edit article %d rejected: %v", id, err)
		return false
	}
	editor, err := s.identity.FindByName(ctx, requestingUsername)
	if err != nil {
		logger.Warningf("edit article %d rejected for %q: %v", id, requestingUsername, err)
		return false
	}

	err = s.db.WithContext(ctx).Model(existing).
		Select("title", "body", "start_date", "end_date", "contributor_id", "contributor_username").
		Updates(model.Article{
			Title:               updated.Title,
			Body:                s.sanitizer.Sanitize(updated.Body),
			StartDate:           updated.StartDate.UTC(),
			EndDate:             updated.EndDate.UTC(),
			ContributorId:       editor.Id,
			ContributorUsername: editor.Username,
		}).Error
	if err != nil {
		logger.Warningf("edit article %d failed: %v", id, err)
		return false
	}
	return true
}

func (s *ArticleService) DeleteArticle(ctx context.Context, id int) bool {
	res := s.db.WithContext(ctx).Delete(&model.Article{}, id)
	if res.Error != nil {
		logger.Warningf("delete article %d failed: %v", id, res.Error)
		return false
	}
	return res.RowsAffected > 0
}

// DeleteArticlesByContributor removes every article carrying username as its
// denormalized contributor and returns how many went.
func (s *ArticleService) DeleteArticlesByContributor(ctx context.Context, username string) (int64, bool) {
	res := s.db.WithContext(ctx).
		Where("contributor_username = ?", username).
		Delete(&model.Article{})
	if res.Error != nil {
		logger.Warningf("delete articles of %s failed: %v", username, res.Error)
		return 0, false
	}
	return res.RowsAffected, true
}

func (s *ArticleService) ArticleExistsWithTitle(ctx context.Context, title string) (bool, error) {
	var count int64
	err := s.db.WithContext(ctx).Model(&model.Article{}).Where("title = ?", title).Count(&count).Error
	return count > 0, err
}
