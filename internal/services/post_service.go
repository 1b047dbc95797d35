package services

import (
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/paalso/microblog-go/internal/models"
)

// PostServiceProvider defines the interface for post services.
type PostServiceProvider interface {
	CreatePost(userID, body string) (models.Post, error)
	Feed(userID string, page, perPage int) (models.PostPage, error)
	FeedSince(userID string, since time.Time, limit int) ([]models.Post, error)
	Explore(page, perPage int) (models.PostPage, error)
	PostsByUser(userID string, page, perPage int) (models.PostPage, error)
}

// PostService provides business logic for posts and feed queries.
type PostService struct {
	db *sql.DB
}

// NewPostService creates a new PostService.
func NewPostService(db *sql.DB) *PostService {
	return &PostService{db: db}
}

const postColumns = "p.id, p.body, p.user_id, u.username, p.created_at, p.updated_at"

// feedPredicate selects posts authored by the user or by anyone the user
// follows. Both placeholders take the same user ID.
const feedPredicate = `p.user_id = ?
		OR p.user_id IN (SELECT followed_id FROM followers WHERE follower_id = ?)`

// CreatePost stores a new post for the given author. Posts are immutable
// after creation.
func (s *PostService) CreatePost(userID, body string) (models.Post, error) {
	body = strings.TrimSpace(body)
	if body == "" {
		return models.Post{}, fmt.Errorf("post body is required")
	}
	if len(body) > models.MaxPostBody {
		return models.Post{}, fmt.Errorf("post body exceeds %d characters", models.MaxPostBody)
	}

	now := time.Now().UTC()
	post := models.Post{
		ID:        uuid.New().String(),
		Body:      body,
		UserID:    userID,
		CreatedAt: now,
		UpdatedAt: now,
	}

	stmt, err := s.db.Prepare("INSERT INTO posts(id, body, user_id, created_at, updated_at) VALUES(?, ?, ?, ?, ?)")
	if err != nil {
		return models.Post{}, err
	}
	defer stmt.Close()

	if _, err := stmt.Exec(post.ID, post.Body, post.UserID, post.CreatedAt, post.UpdatedAt); err != nil {
		return models.Post{}, err
	}

	// Fill the author name for the response
	row := s.db.QueryRow("SELECT username FROM users WHERE id = ?", userID)
	if err := row.Scan(&post.Username); err != nil {
		return models.Post{}, err
	}
	return post, nil
}

// Feed returns one page of posts authored by the user or by anyone the user
// follows, newest first. A user who follows no one still sees their own
// posts.
func (s *PostService) Feed(userID string, page, perPage int) (models.PostPage, error) {
	query := `SELECT ` + postColumns + `
	FROM posts p JOIN users u ON u.id = p.user_id
	WHERE ` + feedPredicate + `
	ORDER BY p.created_at DESC, p.id`
	return s.paginate(query, page, perPage, userID, userID)
}

// FeedSince returns up to limit feed posts created after the given instant,
// newest first. Used by the digest job.
func (s *PostService) FeedSince(userID string, since time.Time, limit int) ([]models.Post, error) {
	query := `SELECT ` + postColumns + `
	FROM posts p JOIN users u ON u.id = p.user_id
	WHERE (` + feedPredicate + `) AND p.created_at > ?
	ORDER BY p.created_at DESC, p.id
	LIMIT ?`
	rows, err := s.db.Query(query, userID, userID, since.UTC(), limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanPosts(rows)
}

// Explore returns one page of all posts, newest first.
func (s *PostService) Explore(page, perPage int) (models.PostPage, error) {
	query := `SELECT ` + postColumns + `
	FROM posts p JOIN users u ON u.id = p.user_id
	ORDER BY p.created_at DESC, p.id`
	return s.paginate(query, page, perPage)
}

// PostsByUser returns one page of the given user's own posts, newest first.
func (s *PostService) PostsByUser(userID string, page, perPage int) (models.PostPage, error) {
	query := `SELECT ` + postColumns + `
	FROM posts p JOIN users u ON u.id = p.user_id
	WHERE p.user_id = ?
	ORDER BY p.created_at DESC, p.id`
	return s.paginate(query, page, perPage, userID)
}

// paginate runs an ordered post query with LIMIT/OFFSET, fetching one row
// past the page to learn whether a next page exists.
func (s *PostService) paginate(query string, page, perPage int, args ...interface{}) (models.PostPage, error) {
	if page < 1 {
		page = 1
	}
	if perPage < 1 {
		perPage = 1
	}

	args = append(args, perPage+1, (page-1)*perPage)
	rows, err := s.db.Query(query+" LIMIT ? OFFSET ?", args...)
	if err != nil {
		return models.PostPage{}, err
	}
	defer rows.Close()

	posts, err := scanPosts(rows)
	if err != nil {
		return models.PostPage{}, err
	}

	hasNext := len(posts) > perPage
	if hasNext {
		posts = posts[:perPage]
	}
	return models.PostPage{
		Items:   posts,
		Page:    page,
		PerPage: perPage,
		HasNext: hasNext,
		HasPrev: page > 1,
	}, nil
}

func scanPosts(rows *sql.Rows) ([]models.Post, error) {
	posts := []models.Post{}
	for rows.Next() {
		var post models.Post
		if err := rows.Scan(&post.ID, &post.Body, &post.UserID, &post.Username,
			&post.CreatedAt, &post.UpdatedAt); err != nil {
			return nil, err
		}
		posts = append(posts, post)
	}
	return posts, rows.Err()
}
