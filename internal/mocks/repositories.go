package mocks

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/riocapital/blog-api/internal/models"
	"github.com/riocapital/blog-api/internal/repository"
)

type pair struct {
	article int64
	user    int64
}

// Store is an in-memory content store shared by the mock repositories so
// that cross-table effects (cascades, counters, joins) behave like the database
type Store struct {
	mu          sync.Mutex
	nextID      int64
	now         func() time.Time
	users       map[int64]*models.User
	articles    map[int64]*models.Article
	categories  map[int64]*models.Category
	comments    map[int64]*models.Comment
	likes       map[pair]time.Time
	favorites   map[pair]time.Time
	shares      []*models.Share
	donations   map[int64]*models.Donation
	subscribers map[int64]*models.Subscriber
}

// NewStore creates an empty store
func NewStore() *Store {
	return &Store{
		now:         time.Now,
		users:       make(map[int64]*models.User),
		articles:    make(map[int64]*models.Article),
		categories:  make(map[int64]*models.Category),
		comments:    make(map[int64]*models.Comment),
		likes:       make(map[pair]time.Time),
		favorites:   make(map[pair]time.Time),
		donations:   make(map[int64]*models.Donation),
		subscribers: make(map[int64]*models.Subscriber),
	}
}

// SetClock replaces the store's time source
func (s *Store) SetClock(now func() time.Time) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.now = now
}

func (s *Store) id() int64 {
	s.nextID++
	return s.nextID
}

// Repositories returns mock repositories backed by this store
func (s *Store) Repositories() *repository.Repositories {
	return &repository.Repositories{
		User:       &MockUserRepository{store: s},
		Article:    &MockArticleRepository{store: s},
		Category:   &MockCategoryRepository{store: s},
		Comment:    &MockCommentRepository{store: s},
		Engagement: &MockEngagementRepository{store: s},
		Donation:   &MockDonationRepository{store: s},
		Newsletter: &MockNewsletterRepository{store: s},
	}
}

// LikeRows returns the number of like rows for an article
func (s *Store) LikeRows(articleID int64) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	n := 0
	for k := range s.likes {
		if k.article == articleID {
			n++
		}
	}
	return n
}

// ShareRows returns every recorded share
func (s *Store) ShareRows() []*models.Share {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]*models.Share(nil), s.shares...)
}

func paginate[T any](items []T, page models.Page) []T {
	start := page.Offset()
	if start >= len(items) {
		return []T{}
	}
	end := len(items)
	if page.PerPage > 0 && start+page.PerPage < end {
		end = start + page.PerPage
	}
	return items[start:end]
}

// Users

// MockUserRepository is a mock implementation of UserRepository
type MockUserRepository struct {
	store *Store
	Err   error
}

var _ repository.UserRepository = (*MockUserRepository)(nil)

func copyUser(u *models.User) *models.User {
	c := *u
	return &c
}

func (m *MockUserRepository) Create(ctx context.Context, user *models.User) error {
	if m.Err != nil {
		return m.Err
	}
	s := m.store
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, u := range s.users {
		if strings.EqualFold(u.Username, user.Username) || strings.EqualFold(u.Email, user.Email) {
			return fmt.Errorf("%w: users", repository.ErrDuplicate)
		}
		if user.GoogleID != "" && u.GoogleID == user.GoogleID {
			return fmt.Errorf("%w: users_google_id_key", repository.ErrDuplicate)
		}
	}
	user.ID = s.id()
	user.CreatedAt = s.now()
	user.UpdatedAt = user.CreatedAt
	s.users[user.ID] = copyUser(user)
	return nil
}

func (m *MockUserRepository) find(match func(*models.User) bool) (*models.User, error) {
	if m.Err != nil {
		return nil, m.Err
	}
	s := m.store
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, u := range s.users {
		if match(u) {
			return copyUser(u), nil
		}
	}
	return nil, nil
}

func (m *MockUserRepository) GetByID(ctx context.Context, id int64) (*models.User, error) {
	return m.find(func(u *models.User) bool { return u.ID == id })
}

func (m *MockUserRepository) GetByLogin(ctx context.Context, login string) (*models.User, error) {
	return m.find(func(u *models.User) bool { return u.Username == login || strings.EqualFold(u.Email, login) })
}

func (m *MockUserRepository) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	return m.find(func(u *models.User) bool { return strings.EqualFold(u.Email, email) })
}

func (m *MockUserRepository) GetByGoogleID(ctx context.Context, googleID string) (*models.User, error) {
	return m.find(func(u *models.User) bool { return googleID != "" && u.GoogleID == googleID })
}

func (m *MockUserRepository) UsernameExists(ctx context.Context, username string) (bool, error) {
	u, err := m.find(func(u *models.User) bool { return strings.EqualFold(u.Username, username) })
	return u != nil, err
}

func (m *MockUserRepository) update(id int64, apply func(*models.User) error) (*models.User, error) {
	if m.Err != nil {
		return nil, m.Err
	}
	s := m.store
	s.mu.Lock()
	defer s.mu.Unlock()
	u, ok := s.users[id]
	if !ok {
		return nil, nil
	}
	if err := apply(u); err != nil {
		return nil, err
	}
	u.UpdatedAt = s.now()
	return copyUser(u), nil
}

func (m *MockUserRepository) UpdateProfile(ctx context.Context, id int64, update *models.ProfileUpdate) (*models.User, error) {
	return m.update(id, func(u *models.User) error {
		if update.FirstName != nil {
			u.FirstName = *update.FirstName
		}
		if update.LastName != nil {
			u.LastName = *update.LastName
		}
		if update.Bio != nil {
			u.Bio = *update.Bio
		}
		if update.AvatarURL != nil {
			u.AvatarURL = *update.AvatarURL
		}
		if update.LinkedInURL != nil {
			u.LinkedInURL = *update.LinkedInURL
		}
		return nil
	})
}

func (m *MockUserRepository) CompleteProfile(ctx context.Context, id int64, username, firstName, lastName string) (*models.User, error) {
	return m.update(id, func(u *models.User) error {
		for _, other := range m.store.users {
			if other.ID != id && strings.EqualFold(other.Username, username) {
				return fmt.Errorf("%w: users_username_key", repository.ErrDuplicate)
			}
		}
		u.Username, u.FirstName, u.LastName = username, firstName, lastName
		u.ProfileCompleted = true
		return nil
	})
}

func (m *MockUserRepository) LinkGoogle(ctx context.Context, id int64, googleID string) error {
	_, err := m.update(id, func(u *models.User) error { u.GoogleID = googleID; return nil })
	return err
}

func (m *MockUserRepository) UpdatePassword(ctx context.Context, id int64, hash string) error {
	_, err := m.update(id, func(u *models.User) error { u.PasswordHash = hash; return nil })
	return err
}

func (m *MockUserRepository) SetRole(ctx context.Context, id int64, role string) (*models.User, error) {
	return m.update(id, func(u *models.User) error { u.Role = role; return nil })
}

func (m *MockUserRepository) SetActive(ctx context.Context, id int64, active bool) (*models.User, error) {
	return m.update(id, func(u *models.User) error { u.Active = active; return nil })
}

func (m *MockUserRepository) List(ctx context.Context, page models.Page) ([]*models.User, int, error) {
	if m.Err != nil {
		return nil, 0, m.Err
	}
	s := m.store
	s.mu.Lock()
	defer s.mu.Unlock()
	users := make([]*models.User, 0, len(s.users))
	for _, u := range s.users {
		users = append(users, copyUser(u))
	}
	sort.Slice(users, func(i, j int) bool { return users[i].ID < users[j].ID })
	return paginate(users, page), len(users), nil
}

// Articles

// MockArticleRepository is a mock implementation of ArticleRepository
type MockArticleRepository struct {
	store *Store
	Err   error
}

var _ repository.ArticleRepository = (*MockArticleRepository)(nil)

// decorate returns a copy of a with the joined author and category fields. Caller holds the lock.
func (s *Store) decorate(a *models.Article) *models.Article {
	c := *a
	if u, ok := s.users[a.AuthorID]; ok {
		c.AuthorName = u.FullName()
		if a.ShowAuthorContacts {
			c.AuthorEmail = u.Email
			c.AuthorLinkedIn = u.LinkedInURL
		}
	}
	if cat, ok := s.categories[a.CategoryID]; ok {
		c.CategoryName = cat.Name
		c.CategoryColor = cat.Color
	}
	return &c
}

func (m *MockArticleRepository) Create(ctx context.Context, article *models.Article) error {
	if m.Err != nil {
		return m.Err
	}
	s := m.store
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, a := range s.articles {
		if a.Slug == article.Slug {
			return fmt.Errorf("%w: articles_slug_key", repository.ErrDuplicate)
		}
	}
	article.ID = s.id()
	article.CreatedAt = s.now()
	article.UpdatedAt = article.CreatedAt
	c := *article
	s.articles[article.ID] = &c
	return nil
}

func (m *MockArticleRepository) Update(ctx context.Context, article *models.Article) error {
	if m.Err != nil {
		return m.Err
	}
	s := m.store
	s.mu.Lock()
	defer s.mu.Unlock()
	stored, ok := s.articles[article.ID]
	if !ok {
		return nil
	}
	c := *article
	c.LikesCount, c.ViewsCount, c.CreatedAt = stored.LikesCount, stored.ViewsCount, stored.CreatedAt
	c.UpdatedAt = s.now()
	s.articles[article.ID] = &c
	return nil
}

func (m *MockArticleRepository) Delete(ctx context.Context, id int64) (bool, error) {
	if m.Err != nil {
		return false, m.Err
	}
	s := m.store
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.articles[id]; !ok {
		return false, nil
	}
	delete(s.articles, id)
	for cid, c := range s.comments {
		if c.ArticleID == id {
			delete(s.comments, cid)
		}
	}
	for k := range s.likes {
		if k.article == id {
			delete(s.likes, k)
		}
	}
	for k := range s.favorites {
		if k.article == id {
			delete(s.favorites, k)
		}
	}
	kept := s.shares[:0]
	for _, sh := range s.shares {
		if sh.ArticleID != id {
			kept = append(kept, sh)
		}
	}
	s.shares = kept
	return true, nil
}

func (m *MockArticleRepository) find(match func(*models.Article) bool) (*models.Article, error) {
	if m.Err != nil {
		return nil, m.Err
	}
	s := m.store
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, a := range s.articles {
		if match(a) {
			return s.decorate(a), nil
		}
	}
	return nil, nil
}

func (m *MockArticleRepository) GetByID(ctx context.Context, id int64) (*models.Article, error) {
	return m.find(func(a *models.Article) bool { return a.ID == id })
}

func (m *MockArticleRepository) GetBySlug(ctx context.Context, slug string) (*models.Article, error) {
	return m.find(func(a *models.Article) bool { return a.Slug == slug })
}

func (m *MockArticleRepository) SlugExists(ctx context.Context, slug string) (bool, error) {
	a, err := m.find(func(a *models.Article) bool { return a.Slug == slug })
	return a != nil, err
}

func (m *MockArticleRepository) collect(match func(*models.Article) bool, page models.Page) ([]*models.Article, int, error) {
	if m.Err != nil {
		return nil, 0, m.Err
	}
	s := m.store
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []*models.Article
	for _, a := range s.articles {
		if match(a) {
			out = append(out, s.decorate(a))
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].CreatedAt.After(out[j].CreatedAt)
		}
		return out[i].ID > out[j].ID
	})
	return paginate(out, page), len(out), nil
}

func (m *MockArticleRepository) List(ctx context.Context, f *models.ArticleFilter) ([]*models.Article, int, error) {
	search := strings.ToLower(f.Search)
	return m.collect(func(a *models.Article) bool {
		if !a.Published {
			return false
		}
		if f.CategorySlug != "" {
			cat, ok := m.store.categories[a.CategoryID]
			if !ok || cat.Slug != f.CategorySlug {
				return false
			}
		}
		if f.AuthorID != 0 && a.AuthorID != f.AuthorID {
			return false
		}
		if f.Year != 0 && a.CreatedAt.Year() != f.Year {
			return false
		}
		if f.Year != 0 && f.Month != 0 && int(a.CreatedAt.Month()) != f.Month {
			return false
		}
		if search != "" && !strings.Contains(strings.ToLower(a.Title+" "+a.Content+" "+a.Excerpt), search) {
			return false
		}
		if f.ExcludeID != 0 && a.ID == f.ExcludeID {
			return false
		}
		if f.Featured != nil && a.Featured != *f.Featured {
			return false
		}
		return true
	}, f.Page)
}

func (m *MockArticleRepository) ListByAuthor(ctx context.Context, authorID int64, page models.Page) ([]*models.Article, int, error) {
	return m.collect(func(a *models.Article) bool { return a.AuthorID == authorID }, page)
}

func (m *MockArticleRepository) IncrementViews(ctx context.Context, id int64) (int, error) {
	if m.Err != nil {
		return 0, m.Err
	}
	s := m.store
	s.mu.Lock()
	defer s.mu.Unlock()
	a, ok := s.articles[id]
	if !ok {
		return 0, fmt.Errorf("article %d not found", id)
	}
	a.ViewsCount++
	return a.ViewsCount, nil
}

func (m *MockArticleRepository) Stats(ctx context.Context, id int64) (*models.ArticleStats, error) {
	if m.Err != nil {
		return nil, m.Err
	}
	s := m.store
	s.mu.Lock()
	defer s.mu.Unlock()
	a, ok := s.articles[id]
	if !ok {
		return nil, nil
	}
	stats := &models.ArticleStats{ArticleID: id, Likes: a.LikesCount, Views: a.ViewsCount, SharesByPlatform: []models.PlatformCount{}}
	for _, c := range s.comments {
		if c.ArticleID == id {
			stats.Comments++
		}
	}
	byPlatform := map[string]int{}
	for _, sh := range s.shares {
		if sh.ArticleID == id {
			stats.Shares++
			byPlatform[sh.Platform]++
		}
	}
	for p, n := range byPlatform {
		stats.SharesByPlatform = append(stats.SharesByPlatform, models.PlatformCount{Platform: p, Count: n})
	}
	sort.Slice(stats.SharesByPlatform, func(i, j int) bool {
		x, y := stats.SharesByPlatform[i], stats.SharesByPlatform[j]
		if x.Count != y.Count {
			return x.Count > y.Count
		}
		return x.Platform < y.Platform
	})
	return stats, nil
}

func (m *MockArticleRepository) FilterOptions(ctx context.Context) (*models.FilterOptions, error) {
	if m.Err != nil {
		return nil, m.Err
	}
	s := m.store
	s.mu.Lock()
	defer s.mu.Unlock()
	opts := &models.FilterOptions{Categories: []models.FilterOption{}, Authors: []models.FilterOption{}, Dates: map[int][]int{}}
	seenCat, seenAuthor := map[int64]bool{}, map[int64]bool{}
	seenMonth := map[[2]int]bool{}
	for _, a := range s.articles {
		if !a.Published {
			continue
		}
		if cat, ok := s.categories[a.CategoryID]; ok && !seenCat[cat.ID] {
			seenCat[cat.ID] = true
			opts.Categories = append(opts.Categories, models.FilterOption{Value: cat.Slug, Label: cat.Name})
		}
		if u, ok := s.users[a.AuthorID]; ok && !seenAuthor[u.ID] {
			seenAuthor[u.ID] = true
			opts.Authors = append(opts.Authors, models.FilterOption{Value: u.ID, Label: u.FullName()})
		}
		ym := [2]int{a.CreatedAt.Year(), int(a.CreatedAt.Month())}
		if !seenMonth[ym] {
			seenMonth[ym] = true
			opts.Dates[ym[0]] = append(opts.Dates[ym[0]], ym[1])
		}
	}
	return opts, nil
}

// Categories

// MockCategoryRepository is a mock implementation of CategoryRepository
type MockCategoryRepository struct {
	store *Store
	Err   error
	// ListCalls counts ListActive invocations
	ListCalls int
}

var _ repository.CategoryRepository = (*MockCategoryRepository)(nil)

func (s *Store) categoryConflict(c *models.Category) bool {
	for _, other := range s.categories {
		if other.ID != c.ID && (strings.EqualFold(other.Name, c.Name) || other.Slug == c.Slug) {
			return true
		}
	}
	return false
}

func (m *MockCategoryRepository) Create(ctx context.Context, category *models.Category) error {
	if m.Err != nil {
		return m.Err
	}
	s := m.store
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.categoryConflict(category) {
		return fmt.Errorf("%w: categories_name_key", repository.ErrDuplicate)
	}
	category.ID = s.id()
	category.CreatedAt = s.now()
	c := *category
	s.categories[category.ID] = &c
	return nil
}

func (m *MockCategoryRepository) Update(ctx context.Context, category *models.Category) error {
	if m.Err != nil {
		return m.Err
	}
	s := m.store
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.categories[category.ID]; !ok {
		return nil
	}
	if s.categoryConflict(category) {
		return fmt.Errorf("%w: categories_name_key", repository.ErrDuplicate)
	}
	c := *category
	s.categories[category.ID] = &c
	return nil
}

func (m *MockCategoryRepository) Delete(ctx context.Context, id int64) (bool, error) {
	if m.Err != nil {
		return false, m.Err
	}
	s := m.store
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.categories[id]; !ok {
		return false, nil
	}
	delete(s.categories, id)
	return true, nil
}

func (m *MockCategoryRepository) find(match func(*models.Category) bool) (*models.Category, error) {
	if m.Err != nil {
		return nil, m.Err
	}
	s := m.store
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, c := range s.categories {
		if match(c) {
			cp := *c
			return &cp, nil
		}
	}
	return nil, nil
}

func (m *MockCategoryRepository) GetByID(ctx context.Context, id int64) (*models.Category, error) {
	return m.find(func(c *models.Category) bool { return c.ID == id })
}

func (m *MockCategoryRepository) GetBySlug(ctx context.Context, slug string) (*models.Category, error) {
	return m.find(func(c *models.Category) bool { return c.Slug == slug })
}

func (m *MockCategoryRepository) Exists(ctx context.Context, id int64) (bool, error) {
	c, err := m.GetByID(ctx, id)
	return c != nil, err
}

func (m *MockCategoryRepository) ArticleCount(ctx context.Context, id int64) (int, error) {
	if m.Err != nil {
		return 0, m.Err
	}
	s := m.store
	s.mu.Lock()
	defer s.mu.Unlock()
	n := 0
	for _, a := range s.articles {
		if a.CategoryID == id {
			n++
		}
	}
	return n, nil
}

func (m *MockCategoryRepository) ListActive(ctx context.Context) ([]*models.Category, error) {
	if m.Err != nil {
		return nil, m.Err
	}
	s := m.store
	s.mu.Lock()
	defer s.mu.Unlock()
	m.ListCalls++
	out := []*models.Category{}
	for _, c := range s.categories {
		if !c.Active {
			continue
		}
		cp := *c
		for _, a := range s.articles {
			if a.CategoryID == c.ID && a.Published {
				cp.ArticleCount++
			}
		}
		out = append(out, &cp)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

// Comments

// MockCommentRepository is a mock implementation of CommentRepository
type MockCommentRepository struct {
	store *Store
	Err   error
}

var _ repository.CommentRepository = (*MockCommentRepository)(nil)

// decorateComment returns a copy of c with the joined user and article fields. Caller holds the lock.
func (s *Store) decorateComment(c *models.Comment) *models.Comment {
	cp := *c
	if u, ok := s.users[c.UserID]; ok {
		cp.UserName = u.Username
	}
	if a, ok := s.articles[c.ArticleID]; ok {
		cp.ArticleTitle = a.Title
	}
	return &cp
}

func (m *MockCommentRepository) Create(ctx context.Context, comment *models.Comment) error {
	if m.Err != nil {
		return m.Err
	}
	s := m.store
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.articles[comment.ArticleID]; !ok {
		return fmt.Errorf("insert comment: article %d does not exist", comment.ArticleID)
	}
	comment.ID = s.id()
	comment.CreatedAt = s.now()
	comment.UpdatedAt = comment.CreatedAt
	cp := *comment
	s.comments[comment.ID] = &cp
	return nil
}

func (m *MockCommentRepository) GetByID(ctx context.Context, id int64) (*models.Comment, error) {
	if m.Err != nil {
		return nil, m.Err
	}
	s := m.store
	s.mu.Lock()
	defer s.mu.Unlock()
	c, ok := s.comments[id]
	if !ok {
		return nil, nil
	}
	return s.decorateComment(c), nil
}

func (m *MockCommentRepository) UpdateContent(ctx context.Context, id int64, content string) (*models.Comment, error) {
	if m.Err != nil {
		return nil, m.Err
	}
	s := m.store
	s.mu.Lock()
	defer s.mu.Unlock()
	c, ok := s.comments[id]
	if !ok {
		return nil, nil
	}
	c.Content = content
	c.Status = models.CommentPending
	c.ModerationReason = ""
	c.UpdatedAt = s.now()
	return s.decorateComment(c), nil
}

func (m *MockCommentRepository) Delete(ctx context.Context, id int64) (bool, error) {
	n, err := m.BulkDelete(ctx, []int64{id})
	return n > 0, err
}

func (m *MockCommentRepository) MarkReported(ctx context.Context, id int64) (bool, error) {
	if m.Err != nil {
		return false, m.Err
	}
	s := m.store
	s.mu.Lock()
	defer s.mu.Unlock()
	c, ok := s.comments[id]
	if !ok {
		return false, nil
	}
	c.Reported = true
	return true, nil
}

func (m *MockCommentRepository) list(match func(*models.Comment) bool, page models.Page) ([]*models.Comment, int, error) {
	if m.Err != nil {
		return nil, 0, m.Err
	}
	s := m.store
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []*models.Comment
	for _, c := range s.comments {
		if match(c) {
			out = append(out, s.decorateComment(c))
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].CreatedAt.After(out[j].CreatedAt)
		}
		return out[i].ID > out[j].ID
	})
	return paginate(out, page), len(out), nil
}

func (m *MockCommentRepository) ListForArticle(ctx context.Context, articleID int64, approvedOnly bool, page models.Page) ([]*models.Comment, int, error) {
	return m.list(func(c *models.Comment) bool {
		return c.ArticleID == articleID && c.ParentID == nil && (!approvedOnly || c.Status == models.CommentApproved)
	}, page)
}

func (m *MockCommentRepository) ListForModeration(ctx context.Context, status models.CommentStatus, page models.Page) ([]*models.Comment, int, error) {
	return m.list(func(c *models.Comment) bool { return status == "" || c.Status == status }, page)
}

func (m *MockCommentRepository) SetStatus(ctx context.Context, id int64, status models.CommentStatus, reason string) (bool, error) {
	n, err := m.BulkSetStatus(ctx, []int64{id}, status, reason)
	return n > 0, err
}

func (m *MockCommentRepository) BulkSetStatus(ctx context.Context, ids []int64, status models.CommentStatus, reason string) (int, error) {
	if m.Err != nil {
		return 0, m.Err
	}
	s := m.store
	s.mu.Lock()
	defer s.mu.Unlock()
	n := 0
	seen := map[int64]bool{}
	for _, id := range ids {
		c, ok := s.comments[id]
		if !ok || seen[id] {
			continue
		}
		seen[id] = true
		c.Status = status
		if reason != "" {
			c.ModerationReason = reason
		}
		c.UpdatedAt = s.now()
		n++
	}
	return n, nil
}

func (m *MockCommentRepository) BulkDelete(ctx context.Context, ids []int64) (int, error) {
	if m.Err != nil {
		return 0, m.Err
	}
	s := m.store
	s.mu.Lock()
	defer s.mu.Unlock()
	n := 0
	for _, id := range ids {
		if _, ok := s.comments[id]; ok {
			delete(s.comments, id)
			n++
		}
	}
	return n, nil
}

// Engagement

// MockEngagementRepository is a mock implementation of EngagementRepository.
// Like rows and likes_count change under one lock, mirroring the transaction.
type MockEngagementRepository struct {
	store *Store
	Err   error
	// DeleteErr fails only the compensating deletes
	DeleteErr error
}

var _ repository.EngagementRepository = (*MockEngagementRepository)(nil)

func (m *MockEngagementRepository) InsertLike(ctx context.Context, articleID, userID int64) (models.InsertOutcome, int, error) {
	if m.Err != nil {
		return models.AlreadyExists, 0, m.Err
	}
	s := m.store
	s.mu.Lock()
	defer s.mu.Unlock()
	a, ok := s.articles[articleID]
	if !ok {
		return models.AlreadyExists, 0, fmt.Errorf("article %d does not exist", articleID)
	}
	key := pair{articleID, userID}
	if _, exists := s.likes[key]; exists {
		return models.AlreadyExists, a.LikesCount, nil
	}
	s.likes[key] = s.now()
	a.LikesCount++
	return models.Inserted, a.LikesCount, nil
}

func (m *MockEngagementRepository) DeleteLike(ctx context.Context, articleID, userID int64) (bool, int, error) {
	if m.DeleteErr != nil {
		return false, 0, m.DeleteErr
	}
	s := m.store
	s.mu.Lock()
	defer s.mu.Unlock()
	a, ok := s.articles[articleID]
	if !ok {
		return false, 0, fmt.Errorf("article %d does not exist", articleID)
	}
	key := pair{articleID, userID}
	if _, exists := s.likes[key]; !exists {
		return false, a.LikesCount, nil
	}
	delete(s.likes, key)
	a.LikesCount--
	return true, a.LikesCount, nil
}

func (m *MockEngagementRepository) InsertFavorite(ctx context.Context, articleID, userID int64) (models.InsertOutcome, error) {
	if m.Err != nil {
		return models.AlreadyExists, m.Err
	}
	s := m.store
	s.mu.Lock()
	defer s.mu.Unlock()
	key := pair{articleID, userID}
	if _, exists := s.favorites[key]; exists {
		return models.AlreadyExists, nil
	}
	s.favorites[key] = s.now()
	return models.Inserted, nil
}

func (m *MockEngagementRepository) DeleteFavorite(ctx context.Context, articleID, userID int64) (bool, error) {
	if m.DeleteErr != nil {
		return false, m.DeleteErr
	}
	s := m.store
	s.mu.Lock()
	defer s.mu.Unlock()
	key := pair{articleID, userID}
	if _, exists := s.favorites[key]; !exists {
		return false, nil
	}
	delete(s.favorites, key)
	return true, nil
}

func (m *MockEngagementRepository) Engagement(ctx context.Context, articleID, userID int64) (*models.Engagement, error) {
	if m.Err != nil {
		return nil, m.Err
	}
	s := m.store
	s.mu.Lock()
	defer s.mu.Unlock()
	a, ok := s.articles[articleID]
	if !ok {
		return nil, nil
	}
	_, liked := s.likes[pair{articleID, userID}]
	_, fav := s.favorites[pair{articleID, userID}]
	return &models.Engagement{Liked: liked, Favorited: fav, LikesCount: a.LikesCount}, nil
}

func (m *MockEngagementRepository) ListFavorites(ctx context.Context, userID int64, limit int) ([]*models.FavoriteArticle, error) {
	if m.Err != nil {
		return nil, m.Err
	}
	s := m.store
	s.mu.Lock()
	defer s.mu.Unlock()
	out := []*models.FavoriteArticle{}
	for k, at := range s.favorites {
		a, ok := s.articles[k.article]
		if k.user != userID || !ok || !a.Published {
			continue
		}
		out = append(out, &models.FavoriteArticle{Article: s.decorate(a), FavoritedAt: at})
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].FavoritedAt.Equal(out[j].FavoritedAt) {
			return out[i].FavoritedAt.After(out[j].FavoritedAt)
		}
		return out[i].ID > out[j].ID
	})
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (m *MockEngagementRepository) CreateShare(ctx context.Context, share *models.Share) error {
	if m.Err != nil {
		return m.Err
	}
	s := m.store
	s.mu.Lock()
	defer s.mu.Unlock()
	share.ID = s.id()
	share.CreatedAt = s.now()
	cp := *share
	s.shares = append(s.shares, &cp)
	return nil
}

// Donations

// MockDonationRepository is a mock implementation of DonationRepository
type MockDonationRepository struct {
	store *Store
	Err   error
}

var _ repository.DonationRepository = (*MockDonationRepository)(nil)

func copyDonation(d *models.Donation) *models.Donation {
	c := *d
	return &c
}

func (m *MockDonationRepository) Create(ctx context.Context, donation *models.Donation) error {
	if m.Err != nil {
		return m.Err
	}
	s := m.store
	s.mu.Lock()
	defer s.mu.Unlock()
	donation.ID = s.id()
	donation.CreatedAt = s.now()
	donation.UpdatedAt = donation.CreatedAt
	s.donations[donation.ID] = copyDonation(donation)
	return nil
}

func (m *MockDonationRepository) GetByID(ctx context.Context, id int64) (*models.Donation, error) {
	if m.Err != nil {
		return nil, m.Err
	}
	s := m.store
	s.mu.Lock()
	defer s.mu.Unlock()
	d, ok := s.donations[id]
	if !ok {
		return nil, nil
	}
	return copyDonation(d), nil
}

func (m *MockDonationRepository) GetByTransactionID(ctx context.Context, transactionID string) (*models.Donation, error) {
	if m.Err != nil {
		return nil, m.Err
	}
	s := m.store
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, d := range s.donations {
		if d.TransactionID == transactionID {
			return copyDonation(d), nil
		}
	}
	return nil, nil
}

func (m *MockDonationRepository) SetTransactionID(ctx context.Context, id int64, transactionID string) error {
	if m.Err != nil {
		return m.Err
	}
	s := m.store
	s.mu.Lock()
	defer s.mu.Unlock()
	if d, ok := s.donations[id]; ok {
		d.TransactionID = transactionID
	}
	return nil
}

// transition moves a donation from one status to another, returning nil when it is not in from
func (m *MockDonationRepository) transition(id int64, from, to models.DonationStatus, txID string) (*models.Donation, error) {
	if m.Err != nil {
		return nil, m.Err
	}
	s := m.store
	s.mu.Lock()
	defer s.mu.Unlock()
	d, ok := s.donations[id]
	if !ok || d.Status != from {
		return nil, nil
	}
	d.Status = to
	if txID != "" {
		d.TransactionID = txID
	}
	d.UpdatedAt = s.now()
	return copyDonation(d), nil
}

func (m *MockDonationRepository) Complete(ctx context.Context, id int64, transactionID string) (*models.Donation, error) {
	return m.transition(id, models.DonationPending, models.DonationCompleted, transactionID)
}

func (m *MockDonationRepository) Refund(ctx context.Context, id int64) (*models.Donation, error) {
	return m.transition(id, models.DonationCompleted, models.DonationRefunded, "")
}

func (m *MockDonationRepository) sorted(match func(*models.Donation) bool, newestFirst bool) []*models.Donation {
	s := m.store
	var out []*models.Donation
	for _, d := range s.donations {
		if match(d) {
			out = append(out, copyDonation(d))
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if newestFirst {
			return out[i].ID > out[j].ID
		}
		return out[i].ID < out[j].ID
	})
	return out
}

func (m *MockDonationRepository) List(ctx context.Context, status models.DonationStatus, page models.Page) ([]*models.Donation, int, error) {
	if m.Err != nil {
		return nil, 0, m.Err
	}
	m.store.mu.Lock()
	defer m.store.mu.Unlock()
	out := m.sorted(func(d *models.Donation) bool { return status == "" || d.Status == status }, true)
	return paginate(out, page), len(out), nil
}

func (m *MockDonationRepository) Recent(ctx context.Context, since time.Time, limit int) ([]*models.Donation, error) {
	if m.Err != nil {
		return nil, m.Err
	}
	m.store.mu.Lock()
	defer m.store.mu.Unlock()
	out := m.sorted(func(d *models.Donation) bool {
		return d.Status == models.DonationCompleted && !d.Anonymous && !d.CreatedAt.Before(since)
	}, true)
	if len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (m *MockDonationRepository) ListPending(ctx context.Context, method string, limit int) ([]*models.Donation, error) {
	if m.Err != nil {
		return nil, m.Err
	}
	m.store.mu.Lock()
	defer m.store.mu.Unlock()
	out := m.sorted(func(d *models.Donation) bool {
		return d.Status == models.DonationPending && d.PaymentMethod == method && d.TransactionID != ""
	}, false)
	if len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (m *MockDonationRepository) Stats(ctx context.Context, monthStart time.Time) (*models.DonationStats, error) {
	if m.Err != nil {
		return nil, m.Err
	}
	s := m.store
	s.mu.Lock()
	defer s.mu.Unlock()
	stats := &models.DonationStats{}
	var total, month, maxCents int64
	byDonor := map[string]int64{}
	for _, d := range s.donations {
		switch d.Status {
		case models.DonationPending:
			stats.PendingCount++
		case models.DonationRefunded:
			stats.RefundedCount++
		case models.DonationCompleted:
			stats.TotalCount++
			total += d.AmountCents
			if d.AmountCents > maxCents {
				maxCents = d.AmountCents
			}
			if !d.CreatedAt.Before(monthStart) {
				stats.MonthCount++
				month += d.AmountCents
			}
			if !d.Anonymous && d.DonorName != "" {
				byDonor[d.DonorName] += d.AmountCents
			}
		}
	}
	stats.TotalAmount = float64(total) / 100
	stats.MonthAmount = float64(month) / 100
	stats.MaxAmount = float64(maxCents) / 100
	if stats.TotalCount > 0 {
		stats.AverageAmount = float64(total) / float64(stats.TotalCount) / 100
	}
	for name, cents := range byDonor {
		if stats.TopDonor == nil || float64(cents)/100 > stats.TopDonor.Amount ||
			(float64(cents)/100 == stats.TopDonor.Amount && name < stats.TopDonor.Name) {
			stats.TopDonor = &models.TopDonor{Name: name, Amount: float64(cents) / 100}
		}
	}
	return stats, nil
}

func (m *MockDonationRepository) StreamAll(ctx context.Context, callback func(*models.Donation) error) error {
	if m.Err != nil {
		return m.Err
	}
	m.store.mu.Lock()
	out := m.sorted(func(*models.Donation) bool { return true }, true)
	m.store.mu.Unlock()
	for _, d := range out {
		if err := callback(d); err != nil {
			return err
		}
	}
	return nil
}

// Newsletter

// MockNewsletterRepository is a mock implementation of NewsletterRepository
type MockNewsletterRepository struct {
	store *Store
	Err   error
	// BulkUpsertCalls counts BulkUpsert invocations
	BulkUpsertCalls int
}

var _ repository.NewsletterRepository = (*MockNewsletterRepository)(nil)

func copySubscriber(s *models.Subscriber) *models.Subscriber {
	c := *s
	return &c
}

func (m *MockNewsletterRepository) Create(ctx context.Context, sub *models.Subscriber) error {
	if m.Err != nil {
		return m.Err
	}
	s := m.store
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, other := range s.subscribers {
		if other.Email == sub.Email {
			return fmt.Errorf("%w: newsletter_subscribers_email_key", repository.ErrDuplicate)
		}
	}
	sub.ID = s.id()
	sub.Active = true
	sub.SubscribedAt = s.now()
	s.subscribers[sub.ID] = copySubscriber(sub)
	return nil
}

func (m *MockNewsletterRepository) GetByEmail(ctx context.Context, email string) (*models.Subscriber, error) {
	if m.Err != nil {
		return nil, m.Err
	}
	s := m.store
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, sub := range s.subscribers {
		if sub.Email == email {
			return copySubscriber(sub), nil
		}
	}
	return nil, nil
}

func (m *MockNewsletterRepository) Reactivate(ctx context.Context, id int64, preferences []byte) (*models.Subscriber, error) {
	if m.Err != nil {
		return nil, m.Err
	}
	s := m.store
	s.mu.Lock()
	defer s.mu.Unlock()
	sub, ok := s.subscribers[id]
	if !ok {
		return nil, nil
	}
	sub.Active = true
	sub.SubscribedAt = s.now()
	if len(preferences) > 0 {
		sub.Preferences = preferences
	}
	return copySubscriber(sub), nil
}

func (m *MockNewsletterRepository) Deactivate(ctx context.Context, email string) (bool, error) {
	if m.Err != nil {
		return false, m.Err
	}
	s := m.store
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, sub := range s.subscribers {
		if sub.Email == email {
			sub.Active = false
			return true, nil
		}
	}
	return false, nil
}

func (m *MockNewsletterRepository) List(ctx context.Context, active bool, page models.Page) ([]*models.Subscriber, int, error) {
	if m.Err != nil {
		return nil, 0, m.Err
	}
	s := m.store
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []*models.Subscriber
	for _, sub := range s.subscribers {
		if sub.Active == active {
			out = append(out, copySubscriber(sub))
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID > out[j].ID })
	return paginate(out, page), len(out), nil
}

func (m *MockNewsletterRepository) BulkUpsert(ctx context.Context, emails []string) (int, error) {
	m.BulkUpsertCalls++
	if m.Err != nil {
		return 0, m.Err
	}
	s := m.store
	s.mu.Lock()
	defer s.mu.Unlock()
	byEmail := map[string]*models.Subscriber{}
	for _, sub := range s.subscribers {
		byEmail[sub.Email] = sub
	}
	n := 0
	for _, email := range emails {
		sub, ok := byEmail[email]
		switch {
		case !ok:
			sub = &models.Subscriber{ID: s.id(), Email: email, Active: true, SubscribedAt: s.now()}
			s.subscribers[sub.ID] = sub
			byEmail[email] = sub
			n++
		case !sub.Active:
			sub.Active = true
			sub.SubscribedAt = s.now()
			n++
		}
	}
	return n, nil
}

// Seeding helpers

// AddUser stores a user directly and returns it with its id
func (s *Store) AddUser(u models.User) *models.User {
	s.mu.Lock()
	defer s.mu.Unlock()
	u.ID = s.id()
	if u.CreatedAt.IsZero() {
		u.CreatedAt = s.now()
	}
	s.users[u.ID] = &u
	return copyUser(&u)
}

// AddCategory stores a category directly
func (s *Store) AddCategory(c models.Category) *models.Category {
	s.mu.Lock()
	defer s.mu.Unlock()
	c.ID = s.id()
	if c.CreatedAt.IsZero() {
		c.CreatedAt = s.now()
	}
	s.categories[c.ID] = &c
	cp := c
	return &cp
}

// AddArticle stores an article directly
func (s *Store) AddArticle(a models.Article) *models.Article {
	s.mu.Lock()
	defer s.mu.Unlock()
	a.ID = s.id()
	if a.CreatedAt.IsZero() {
		a.CreatedAt = s.now()
		a.UpdatedAt = a.CreatedAt
	}
	s.articles[a.ID] = &a
	return s.decorate(&a)
}

// AddComment stores a comment directly
func (s *Store) AddComment(c models.Comment) *models.Comment {
	s.mu.Lock()
	defer s.mu.Unlock()
	c.ID = s.id()
	if c.CreatedAt.IsZero() {
		c.CreatedAt = s.now()
		c.UpdatedAt = c.CreatedAt
	}
	if c.Status == "" {
		c.Status = models.CommentPending
	}
	s.comments[c.ID] = &c
	cp := c
	return &cp
}

// AddDonation stores a donation directly
func (s *Store) AddDonation(d models.Donation) *models.Donation {
	s.mu.Lock()
	defer s.mu.Unlock()
	d.ID = s.id()
	if d.CreatedAt.IsZero() {
		d.CreatedAt = s.now()
		d.UpdatedAt = d.CreatedAt
	}
	s.donations[d.ID] = &d
	return copyDonation(&d)
}

// AddSubscriber stores a subscriber directly
func (s *Store) AddSubscriber(sub models.Subscriber) *models.Subscriber {
	s.mu.Lock()
	defer s.mu.Unlock()
	sub.ID = s.id()
	if sub.SubscribedAt.IsZero() {
		sub.SubscribedAt = s.now()
	}
	s.subscribers[sub.ID] = &sub
	return copySubscriber(&sub)
}
