package services

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/dmitrijs2005/postboard/internal/common"
	"github.com/dmitrijs2005/postboard/internal/dbx"
	"github.com/dmitrijs2005/postboard/internal/logging"
	"github.com/dmitrijs2005/postboard/internal/server/assets"
	"github.com/dmitrijs2005/postboard/internal/server/events"
	"github.com/dmitrijs2005/postboard/internal/server/models"
	"github.com/dmitrijs2005/postboard/internal/server/repositories/repomanager"
	"golang.org/x/sync/errgroup"
)

// AssetStore keeps accepted images and serves them from a public URL.
type AssetStore interface {
	Put(ctx context.Context, key, contentType string, data []byte) (string, error)
	Remove(ctx context.Context, url string) error
}

// AssetValidator turns an untrusted upload into something safe to store.
type AssetValidator interface {
	Validate(a models.NewAsset) (*assets.Accepted, error)
}

type PostService struct {
	db          *sql.DB
	repomanager repomanager.RepositoryManager
	validator   AssetValidator
	store       AssetStore
	broker      *events.Broker
	logger      logging.Logger
	now         func() time.Time
}

func NewPostService(db *sql.DB, m repomanager.RepositoryManager, validator AssetValidator,
	store AssetStore, broker *events.Broker, logger logging.Logger) *PostService {
	return &PostService{
		db:          db,
		repomanager: m,
		validator:   validator,
		store:       store,
		broker:      broker,
		logger:      logger.With("module", "posts"),
		now:         time.Now,
	}
}

// List returns one page of posts in creation order plus the total count.
// Paging applies only when pageSize and page are both positive; otherwise
// every post is returned. The two queries run concurrently, so the total
// may be taken a moment apart from the page.
func (s *PostService) List(ctx context.Context, pageSize, page int) ([]*models.Post, int, error) {
	limit, offset := 0, 0
	if pageSize > 0 && page > 0 {
		limit, offset = pageSize, pageSize*(page-1)
	}

	repo := s.repomanager.Posts(s.db)

	var (
		list  []*models.Post
		total int
	)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		list, err = repo.List(gctx, limit, offset)
		return err
	})
	g.Go(func() error {
		var err error
		total, err = repo.Count(gctx)
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, 0, fmt.Errorf("error listing posts: %w", err)
	}

	return list, total, nil
}

func (s *PostService) Get(ctx context.Context, id string) (*models.Post, error) {
	return s.repomanager.Posts(s.db).GetByID(ctx, id)
}

func validateFields(title, content string) error {
	if strings.TrimSpace(title) == "" {
		return fmt.Errorf("%w: title is required", common.ErrorValidation)
	}
	if strings.TrimSpace(content) == "" {
		return fmt.Errorf("%w: content is required", common.ErrorValidation)
	}
	return nil
}

// upload validates and stores a new image, returning its URL.
func (s *PostService) upload(ctx context.Context, a models.NewAsset) (string, error) {
	accepted, err := s.validator.Validate(a)
	if err != nil {
		return "", err
	}

	url, err := s.store.Put(ctx, accepted.Key, accepted.Format.ContentType(), accepted.Data)
	if err != nil {
		return "", fmt.Errorf("error storing image: %w", err)
	}
	return url, nil
}

// discard removes an object we no longer reference. Failures only leave an
// orphan behind, so they are logged rather than returned.
func (s *PostService) discard(ctx context.Context, url string) {
	if err := s.store.Remove(ctx, url); err != nil {
		s.logger.Warn(ctx, "orphaned image", "url", url, "error", err)
		return
	}
	s.logger.Debug(ctx, "image removed", "url", url)
}

// Create stores the image and inserts a post owned by ownerID.
func (s *PostService) Create(ctx context.Context, ownerID, title, content string, image models.NewAsset) (*models.Post, error) {
	if err := validateFields(title, content); err != nil {
		return nil, err
	}

	url, err := s.upload(ctx, image)
	if err != nil {
		return nil, err
	}

	post, err := s.repomanager.Posts(s.db).Create(ctx, &models.Post{
		Title:     title,
		Content:   content,
		ImagePath: url,
		CreatorID: ownerID,
	})
	if err != nil {
		s.discard(ctx, url)
		return nil, fmt.Errorf("error creating post: %w", err)
	}

	s.publish(events.PostCreated, post.ID, ownerID)
	return post, nil
}

// Update replaces title, content and image of a post owned by ownerID.
// A missing post and someone else's post both yield
// common.ErrorNotAuthorizedOrNotFound. An ExistingAssetRef must name the
// post's current image; only a new upload can change it.
func (s *PostService) Update(ctx context.Context, id, ownerID string, upd models.PostUpdate) (*models.Post, error) {
	if err := validateFields(upd.Title, upd.Content); err != nil {
		return nil, err
	}

	var (
		url      string
		uploaded bool
	)
	switch img := upd.Image.(type) {
	case models.NewAsset:
		u, err := s.upload(ctx, img)
		if err != nil {
			return nil, err
		}
		url, uploaded = u, true
	case models.ExistingAssetRef:
		if img.URL == "" {
			return nil, fmt.Errorf("%w: image is required", common.ErrorValidation)
		}
		url = img.URL
	default:
		return nil, fmt.Errorf("%w: image is required", common.ErrorValidation)
	}

	post := &models.Post{
		ID:        id,
		Title:     upd.Title,
		Content:   upd.Content,
		ImagePath: url,
		CreatorID: ownerID,
	}

	var oldURL string
	err := dbx.WithTx(ctx, s.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		repo := s.repomanager.Posts(tx)

		cur, err := repo.GetForUpdate(ctx, id, ownerID)
		if err != nil {
			return err
		}
		if !uploaded && cur.ImagePath != url {
			return fmt.Errorf("%w: imagePath must be the post's current image", common.ErrorValidation)
		}
		oldURL = cur.ImagePath

		return repo.Update(ctx, post)
	})
	if err != nil {
		if uploaded {
			s.discard(ctx, url)
		}
		return nil, err
	}

	if uploaded && oldURL != url {
		s.discard(ctx, oldURL)
	}

	s.publish(events.PostUpdated, id, ownerID)
	return post, nil
}

// Delete removes a post owned by ownerID together with its image. The row
// deletion is rolled back when the image cannot be removed.
func (s *PostService) Delete(ctx context.Context, id, ownerID string) error {
	err := dbx.WithTx(ctx, s.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		imagePath, err := s.repomanager.Posts(tx).Delete(ctx, id, ownerID)
		if err != nil {
			return err
		}
		if err := s.store.Remove(ctx, imagePath); err != nil {
			return fmt.Errorf("error removing image: %w", err)
		}
		return nil
	})
	if err != nil {
		return err
	}

	s.publish(events.PostDeleted, id, ownerID)
	return nil
}

func (s *PostService) publish(kind events.Kind, postID, accountID string) {
	if s.broker == nil {
		return
	}
	s.broker.Publish(events.Event{Kind: kind, PostID: postID, AccountID: accountID, At: s.now()})
}
