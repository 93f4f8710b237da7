package service

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"inkwell/internal/cache"
	"inkwell/internal/imagehost"
	"inkwell/internal/middleware"
	"inkwell/internal/models"
	"inkwell/internal/observability"
	"inkwell/internal/repository"
	"inkwell/internal/validation"
)

const (
	defaultPageSize = 6
	maxPageSize     = 50
	defaultFolder   = "blog-articles"
)

// ArticleOptions tunes the article service.
type ArticleOptions struct {
	// Folder is the image host folder for featured images.
	Folder string
	// MaxUploadBytes bounds featured image size. Zero disables the check.
	MaxUploadBytes int64
	// PageSize is the listing page size when the caller passes none.
	PageSize int
}

type ArticleService struct {
	articles   repository.ArticleRepository
	comments   repository.CommentRepository
	engagement repository.EngagementRepository
	images     imagehost.Host
	views      ViewStore
	opts       ArticleOptions
}

// ArticleInput is the article form. Media is optional on edit.
type ArticleInput struct {
	Title    string
	Category string
	Content  string
	Media    *imagehost.Media
}

type ListArticlesInput struct {
	Search   string
	Category string
	Limit    int
	Offset   int
}

// ArticlePage is one page of the listing plus the total match count.
type ArticlePage struct {
	Items  []models.Article `json:"items"`
	Total  int64            `json:"total"`
	Limit  int              `json:"limit"`
	Offset int              `json:"offset"`
}

// ArticleDetail is an article with everything its detail page shows.
type ArticleDetail struct {
	Article     models.Article   `json:"article"`
	Comments    []models.Comment `json:"comments"`
	LikeUserIDs []uint           `json:"like_user_ids"`
	SaveUserIDs []uint           `json:"save_user_ids"`
}

// LikedBy reports whether userID liked the article.
func (d *ArticleDetail) LikedBy(userID uint) bool { return containsID(d.LikeUserIDs, userID) }

// SavedBy reports whether userID saved the article.
func (d *ArticleDetail) SavedBy(userID uint) bool { return containsID(d.SaveUserIDs, userID) }

func containsID(ids []uint, id uint) bool {
	if id == 0 {
		return false
	}
	for _, v := range ids {
		if v == id {
			return true
		}
	}
	return false
}

// Dashboard is an author's own articles newest-first with the comments they received.
type Dashboard struct {
	Articles      []models.Article `json:"articles"`
	TotalComments int64            `json:"total_comments"`
}

func NewArticleService(
	articles repository.ArticleRepository,
	comments repository.CommentRepository,
	engagement repository.EngagementRepository,
	images imagehost.Host,
	views ViewStore,
	opts ArticleOptions,
) *ArticleService {
	if opts.Folder == "" {
		opts.Folder = defaultFolder
	}
	if opts.PageSize <= 0 {
		opts.PageSize = defaultPageSize
	}
	return &ArticleService{
		articles:   articles,
		comments:   comments,
		engagement: engagement,
		images:     images,
		views:      views,
		opts:       opts,
	}
}

// PageSize is the default listing page size.
func (s *ArticleService) PageSize() int { return s.opts.PageSize }

func (s *ArticleService) validate(in ArticleInput, mediaRequired bool) error {
	err := validation.Article(validation.ArticleFields{
		Title:    in.Title,
		Category: in.Category,
		Content:  in.Content,
	}, in.Media, mediaRequired, s.opts.MaxUploadBytes)
	return validation.AsAppError(err)
}

func (s *ArticleService) upload(ctx context.Context, media *imagehost.Media) (*imagehost.Stored, error) {
	stored, err := s.images.Upload(ctx, s.opts.Folder, *media)
	if err != nil {
		return nil, models.NewUpstreamError("Failed to upload image",
			map[string]string{validation.FeaturedImageKey: "Failed to upload image. Please try again."}, err)
	}
	return stored, nil
}

// loadOwned returns the article when actor is its author.
func (s *ArticleService) loadOwned(ctx context.Context, actor *models.User, id uint, action string) (*models.Article, error) {
	article, err := s.articles.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if article.AuthorID != actor.ID {
		return nil, models.NewForbiddenError(fmt.Sprintf("You can only %s your own articles", action))
	}
	return article, nil
}

func (s *ArticleService) staleAfterWrite(ctx context.Context, authorID, articleID uint, savers []uint) {
	views := []cache.View{
		cache.ViewHome,
		cache.ViewArticles,
		cache.DashboardView(authorID),
		cache.AnalyticsView(authorID),
	}
	if articleID != 0 {
		views = append(views, cache.ArticleView(articleID))
	}
	for _, uid := range savers {
		views = append(views, cache.SavedView(uid))
	}
	s.views.MarkStale(ctx, views...)
}

// Create validates the form, uploads the featured image and stores the article.
func (s *ArticleService) Create(ctx context.Context, actor *models.User, in ArticleInput) (*models.Article, error) {
	if err := requireActor(actor); err != nil {
		return nil, err
	}
	if err := s.validate(in, true); err != nil {
		return nil, err
	}

	stored, err := s.upload(ctx, in.Media)
	if err != nil {
		return nil, err
	}

	article := &models.Article{
		Title:            in.Title,
		Category:         in.Category,
		Content:          in.Content,
		FeaturedImage:    stored.URL,
		FeaturedImageKey: stored.Key,
		AuthorID:         actor.ID,
	}
	if err := s.articles.Create(ctx, article); err != nil {
		discardAsset(ctx, s.images, stored.Key, "create failed")
		return nil, err
	}
	article.Author = *actor

	observability.ArticleMutations.WithLabelValues("create").Inc()
	s.staleAfterWrite(ctx, actor.ID, 0, nil)
	return article, nil
}

// Edit updates an article owned by actor. A new image replaces the stored one.
func (s *ArticleService) Edit(ctx context.Context, actor *models.User, id uint, in ArticleInput) (*models.Article, error) {
	if err := requireActor(actor); err != nil {
		return nil, err
	}
	if err := s.validate(in, false); err != nil {
		return nil, err
	}

	existing, err := s.loadOwned(ctx, actor, id, "edit")
	if err != nil {
		return nil, err
	}

	fields := map[string]interface{}{
		"title":    in.Title,
		"category": in.Category,
		"content":  in.Content,
	}

	var stored *imagehost.Stored
	if in.Media != nil && len(in.Media.Data) > 0 {
		if stored, err = s.upload(ctx, in.Media); err != nil {
			return nil, err
		}
		fields["featured_image"] = stored.URL
		fields["featured_image_key"] = stored.Key
	}

	if err := s.articles.Update(ctx, id, fields); err != nil {
		if stored != nil {
			discardAsset(ctx, s.images, stored.Key, "edit failed")
		}
		return nil, err
	}
	if stored != nil && existing.FeaturedImageKey != stored.Key {
		discardAsset(ctx, s.images, existing.FeaturedImageKey, "replaced")
	}

	savers, err := s.engagement.UserIDs(ctx, repository.RelationSave, id)
	if err != nil {
		middleware.Logger.WarnContext(ctx, "could not list savers for invalidation",
			slog.Uint64("article_id", uint64(id)), slog.String("error", err.Error()))
	}
	observability.ArticleMutations.WithLabelValues("edit").Inc()
	s.staleAfterWrite(ctx, actor.ID, id, savers)

	return s.articles.GetByID(ctx, id)
}

// Delete removes an article owned by actor along with its comments, likes and saves.
func (s *ArticleService) Delete(ctx context.Context, actor *models.User, id uint) error {
	if err := requireActor(actor); err != nil {
		return err
	}

	existing, err := s.loadOwned(ctx, actor, id, "delete")
	if err != nil {
		return err
	}

	savers, err := s.engagement.UserIDs(ctx, repository.RelationSave, id)
	if err != nil {
		return err
	}

	if err := s.articles.Delete(ctx, id); err != nil {
		return err
	}
	discardAsset(ctx, s.images, existing.FeaturedImageKey, "deleted")

	observability.ArticleMutations.WithLabelValues("delete").Inc()
	s.staleAfterWrite(ctx, actor.ID, id, savers)
	return nil
}

// List returns one page of articles matching the search term and category.
func (s *ArticleService) List(ctx context.Context, in ListArticlesInput) (*ArticlePage, error) {
	in.Search = strings.TrimSpace(in.Search)
	in.Category = strings.TrimSpace(in.Category)
	if in.Limit <= 0 {
		in.Limit = s.opts.PageSize
	}
	if in.Limit > maxPageSize {
		in.Limit = maxPageSize
	}
	if in.Offset < 0 {
		in.Offset = 0
	}

	view := cache.ViewArticles
	if in.Search == "" && in.Category == "" && in.Offset == 0 {
		view = cache.ViewHome
	}
	variant := fmt.Sprintf("q=%s|c=%s|l=%d|o=%d",
		strings.ToLower(in.Search), strings.ToLower(in.Category), in.Limit, in.Offset)

	var page ArticlePage
	err := s.views.Aside(ctx, view, variant, &page, func() error {
		items, total, err := s.articles.List(ctx, repository.ListArticlesFilter{
			Search:   in.Search,
			Category: in.Category,
			Limit:    in.Limit,
			Offset:   in.Offset,
		})
		if err != nil {
			return err
		}
		page = ArticlePage{Items: items, Total: total, Limit: in.Limit, Offset: in.Offset}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &page, nil
}

// Get returns an article with its comments, likes and saves.
func (s *ArticleService) Get(ctx context.Context, id uint) (*ArticleDetail, error) {
	var detail ArticleDetail
	err := s.views.Aside(ctx, cache.ArticleView(id), "detail", &detail, func() error {
		article, err := s.articles.GetByID(ctx, id)
		if err != nil {
			return err
		}
		comments, err := s.comments.ListByArticle(ctx, id)
		if err != nil {
			return err
		}
		likes, err := s.engagement.UserIDs(ctx, repository.RelationLike, id)
		if err != nil {
			return err
		}
		saves, err := s.engagement.UserIDs(ctx, repository.RelationSave, id)
		if err != nil {
			return err
		}
		detail = ArticleDetail{Article: *article, Comments: comments, LikeUserIDs: likes, SaveUserIDs: saves}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &detail, nil
}

// GetForEdit returns the article to prefill the edit form. Only the author may read it.
func (s *ArticleService) GetForEdit(ctx context.Context, actor *models.User, id uint) (*models.Article, error) {
	if err := requireActor(actor); err != nil {
		return nil, err
	}
	return s.loadOwned(ctx, actor, id, "edit")
}

// ListByAuthor returns the actor's dashboard.
func (s *ArticleService) ListByAuthor(ctx context.Context, actor *models.User) (*Dashboard, error) {
	if err := requireActor(actor); err != nil {
		return nil, err
	}

	var dash Dashboard
	err := s.views.Aside(ctx, cache.DashboardView(actor.ID), "all", &dash, func() error {
		items, _, err := s.articles.List(ctx, repository.ListArticlesFilter{AuthorID: actor.ID})
		if err != nil {
			return err
		}
		total, err := s.comments.CountForAuthor(ctx, actor.ID)
		if err != nil {
			return err
		}
		dash = Dashboard{Articles: items, TotalComments: total}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &dash, nil
}

// ListSaved returns the articles the actor saved, most recently saved first.
func (s *ArticleService) ListSaved(ctx context.Context, actor *models.User) ([]models.Article, error) {
	if err := requireActor(actor); err != nil {
		return nil, err
	}

	var items []models.Article
	err := s.views.Aside(ctx, cache.SavedView(actor.ID), "all", &items, func() error {
		var err error
		items, err = s.articles.ListSavedBy(ctx, actor.ID)
		return err
	})
	if err != nil {
		return nil, err
	}
	return items, nil
}
