package database

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/loveaihub/loveaihub/pkg/models"
)

const blogColumns = `id, title, slug, excerpt, content, html, author_id, published,
	       view_count, created_at, updated_at`

func scanBlogPost(row pgx.Row) (*models.BlogPost, error) {
	var post models.BlogPost
	err := row.Scan(
		&post.ID, &post.Title, &post.Slug, &post.Excerpt, &post.Content, &post.HTML,
		&post.AuthorID, &post.Published, &post.ViewCount, &post.CreatedAt, &post.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &post, nil
}

// CreateBlogPost inserts a new blog post. Returns ErrDuplicate when the slug
// is already taken; the caller picks a new slug and retries.
func (r *Repository) CreateBlogPost(ctx context.Context, post *models.BlogPost) error {
	if post.ID == "" {
		post.ID = uuid.New().String()
	}

	query := `
		INSERT INTO blog_posts (id, title, slug, excerpt, content, html, author_id, published)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING created_at, updated_at
	`

	err := r.db.Pool.QueryRow(ctx, query,
		post.ID, post.Title, post.Slug, post.Excerpt, post.Content, post.HTML,
		post.AuthorID, post.Published,
	).Scan(&post.CreatedAt, &post.UpdatedAt)

	if isUniqueViolation(err) {
		return ErrDuplicate
	}
	if err != nil {
		return fmt.Errorf("failed to create blog post: %w", err)
	}

	return nil
}

// UpdateBlogPost updates an existing blog post
func (r *Repository) UpdateBlogPost(ctx context.Context, post *models.BlogPost) error {
	query := `
		UPDATE blog_posts
		SET title = $2, slug = $3, excerpt = $4, content = $5, html = $6,
		    published = $7, updated_at = NOW()
		WHERE id = $1
	`

	tag, err := r.db.Pool.Exec(ctx, query,
		post.ID, post.Title, post.Slug, post.Excerpt, post.Content, post.HTML, post.Published,
	)
	if isUniqueViolation(err) {
		return ErrDuplicate
	}
	if err != nil {
		return fmt.Errorf("failed to update blog post: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// DeleteBlogPost removes a blog post
func (r *Repository) DeleteBlogPost(ctx context.Context, id string) error {
	tag, err := r.db.Pool.Exec(ctx, `DELETE FROM blog_posts WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to delete blog post: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// GetBlogPost retrieves a blog post by ID
func (r *Repository) GetBlogPost(ctx context.Context, id string) (*models.BlogPost, error) {
	query := `SELECT ` + blogColumns + ` FROM blog_posts WHERE id = $1`

	post, err := scanBlogPost(r.db.Pool.QueryRow(ctx, query, id))
	if err == pgx.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get blog post: %w", err)
	}

	return post, nil
}

// GetBlogPostBySlug retrieves a published post by slug and increments its
// view count by exactly one in the same statement.
func (r *Repository) GetBlogPostBySlug(ctx context.Context, slug string) (*models.BlogPost, error) {
	query := `
		UPDATE blog_posts
		SET view_count = view_count + 1
		WHERE slug = $1 AND published
		RETURNING ` + blogColumns

	post, err := scanBlogPost(r.db.Pool.QueryRow(ctx, query, slug))
	if err == pgx.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get blog post by slug: %w", err)
	}

	return post, nil
}

// IncrementBlogViewCount bumps the view counter for a post served from
// the cache, keeping counts exact across cache hits.
func (r *Repository) IncrementBlogViewCount(ctx context.Context, id string) error {
	tag, err := r.db.Pool.Exec(ctx, `UPDATE blog_posts SET view_count = view_count + 1 WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to increment view count: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// ListBlogPosts retrieves posts with pagination, newest first.
// When publishedOnly is set, drafts are excluded.
func (r *Repository) ListBlogPosts(ctx context.Context, publishedOnly bool, limit, offset int) ([]*models.BlogPost, error) {
	query := `
		SELECT ` + blogColumns + `
		FROM blog_posts
		WHERE (NOT $1::boolean OR published)
		ORDER BY created_at DESC
		LIMIT $2 OFFSET $3
	`

	rows, err := r.db.Pool.Query(ctx, query, publishedOnly, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("failed to list blog posts: %w", err)
	}
	defer rows.Close()

	var posts []*models.BlogPost
	for rows.Next() {
		post, err := scanBlogPost(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan blog post: %w", err)
		}
		posts = append(posts, post)
	}

	return posts, rows.Err()
}

// CountBlogPosts returns the total number of posts
func (r *Repository) CountBlogPosts(ctx context.Context) (int64, error) {
	var count int64
	err := r.db.Pool.QueryRow(ctx, `SELECT COUNT(*) FROM blog_posts`).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("failed to count blog posts: %w", err)
	}
	return count, nil
}
