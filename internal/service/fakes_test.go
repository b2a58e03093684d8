package service

import (
	"context"
	"database/sql"
	"sort"
	"testing"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/m3-catalog/internal/models"
)

func uniqueViolation() error { return &pq.Error{Code: "23505"} }

func fkViolation() error { return &pq.Error{Code: "23503"} }

type txProviderMock struct {
	db *sqlx.DB
}

func newTxProviderMock(t *testing.T) (txProvider, sqlmock.Sqlmock) {
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return &txProviderMock{db: sqlx.NewDb(db, "sqlmock")}, mock
}

func (t *txProviderMock) BeginTxx(ctx context.Context, opts *sql.TxOptions) (*sqlx.Tx, error) {
	return t.db.BeginTxx(ctx, opts)
}

type mockMediaRepo struct {
	items  map[int64]*models.Media
	nextID int64
	// race is stored by Create, which then reports a unique violation.
	race      *models.Media
	createErr error
	listErr   error
}

func newMockMediaRepo() *mockMediaRepo {
	return &mockMediaRepo{items: map[int64]*models.Media{}}
}

func (m *mockMediaRepo) FindByID(ctx context.Context, id int64) (*models.Media, error) {
	if media, ok := m.items[id]; ok {
		cp := *media
		return &cp, nil
	}
	return nil, sql.ErrNoRows
}

func (m *mockMediaRepo) FindByURI(ctx context.Context, uri string) (*models.Media, error) {
	for _, media := range m.items {
		if media.FileURI == uri {
			cp := *media
			return &cp, nil
		}
	}
	return nil, sql.ErrNoRows
}

func (m *mockMediaRepo) Create(ctx context.Context, media *models.Media) error {
	if m.race != nil {
		m.store(m.race)
		m.race = nil
		return uniqueViolation()
	}
	if m.createErr != nil {
		return m.createErr
	}
	m.store(media)
	return nil
}

func (m *mockMediaRepo) store(media *models.Media) {
	m.nextID++
	media.ID = m.nextID
	cp := *media
	m.items[media.ID] = &cp
}

func (m *mockMediaRepo) List(ctx context.Context, filter models.MediaFilter) ([]models.Media, int, error) {
	if m.listErr != nil {
		return nil, 0, m.listErr
	}
	out := []models.Media{}
	for _, media := range m.items {
		if filter.FileType == 0 || media.FileType == filter.FileType {
			out = append(out, *media)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return page(out, filter.PageRequest), len(out), nil
}

func (m *mockMediaRepo) Delete(ctx context.Context, id int64) (int64, error) {
	if _, ok := m.items[id]; !ok {
		return 0, sql.ErrNoRows
	}
	delete(m.items, id)
	return 0, nil
}

func page[T any](items []T, p models.PageRequest) []T {
	p = p.Normalize(defaultPageSize, maxPageSize)
	start := p.Offset()
	if start >= len(items) {
		return []T{}
	}
	end := start + p.PageSize
	if end > len(items) {
		end = len(items)
	}
	return items[start:end]
}

type mockTagSetRepo struct {
	items  map[int64]*models.TagSet
	nextID int64
	race   *models.TagSet
}

func newMockTagSetRepo() *mockTagSetRepo {
	return &mockTagSetRepo{items: map[int64]*models.TagSet{}}
}

func (m *mockTagSetRepo) FindByID(ctx context.Context, id int64) (*models.TagSet, error) {
	if set, ok := m.items[id]; ok {
		cp := *set
		return &cp, nil
	}
	return nil, sql.ErrNoRows
}

func (m *mockTagSetRepo) FindByName(ctx context.Context, name string) (*models.TagSet, error) {
	for _, set := range m.items {
		if set.Name == name {
			cp := *set
			return &cp, nil
		}
	}
	return nil, sql.ErrNoRows
}

func (m *mockTagSetRepo) Create(ctx context.Context, set *models.TagSet) error {
	if m.race != nil {
		m.store(m.race)
		m.race = nil
		return uniqueViolation()
	}
	m.store(set)
	return nil
}

func (m *mockTagSetRepo) store(set *models.TagSet) {
	m.nextID++
	set.ID = m.nextID
	cp := *set
	m.items[set.ID] = &cp
}

func (m *mockTagSetRepo) List(ctx context.Context, filter models.TagSetFilter) ([]models.TagSet, int, error) {
	out := []models.TagSet{}
	for _, set := range m.items {
		if filter.TagType == 0 || set.TagType == filter.TagType {
			out = append(out, *set)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return page(out, filter.PageRequest), len(out), nil
}

type mockTagRepo struct {
	items     map[int64]*models.Tag
	nextID    int64
	createErr error
	creates   int
}

func newMockTagRepo() *mockTagRepo {
	return &mockTagRepo{items: map[int64]*models.Tag{}}
}

func (m *mockTagRepo) FindByID(ctx context.Context, id int64) (*models.Tag, error) {
	if tag, ok := m.items[id]; ok {
		cp := *tag
		return &cp, nil
	}
	return nil, sql.ErrNoRows
}

func (m *mockTagRepo) FindByValue(ctx context.Context, tagSetID int64, value models.TagValue) (*models.Tag, error) {
	for _, tag := range m.items {
		if tag.TagSetID == tagSetID && tag.Value == value {
			cp := *tag
			return &cp, nil
		}
	}
	return nil, sql.ErrNoRows
}

func (m *mockTagRepo) Create(ctx context.Context, tag *models.Tag) error {
	m.creates++
	if m.createErr != nil {
		return m.createErr
	}
	m.nextID++
	tag.ID = m.nextID
	cp := *tag
	m.items[tag.ID] = &cp
	return nil
}

func (m *mockTagRepo) List(ctx context.Context, filter models.TagFilter) ([]models.Tag, int, error) {
	out := []models.Tag{}
	for _, tag := range m.items {
		if (filter.TagType == 0 || tag.TagType == filter.TagType) && (filter.TagSetID == 0 || tag.TagSetID == filter.TagSetID) {
			out = append(out, *tag)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return page(out, filter.PageRequest), len(out), nil
}

type mockTaggingRepo struct {
	pairs  map[models.Tagging]struct{}
	medias *mockMediaRepo
	tags   *mockTagRepo
	err    error
}

func newMockTaggingRepo(medias *mockMediaRepo, tags *mockTagRepo) *mockTaggingRepo {
	return &mockTaggingRepo{pairs: map[models.Tagging]struct{}{}, medias: medias, tags: tags}
}

func (m *mockTaggingRepo) Create(ctx context.Context, tagging models.Tagging) (bool, error) {
	if m.err != nil {
		return false, m.err
	}
	if m.medias != nil {
		if _, ok := m.medias.items[tagging.MediaID]; !ok {
			return false, fkViolation()
		}
	}
	if m.tags != nil {
		if _, ok := m.tags.items[tagging.TagID]; !ok {
			return false, fkViolation()
		}
	}
	if _, ok := m.pairs[tagging]; ok {
		return false, nil
	}
	m.pairs[tagging] = struct{}{}
	return true, nil
}

func (m *mockTaggingRepo) sorted() []models.Tagging {
	out := make([]models.Tagging, 0, len(m.pairs))
	for p := range m.pairs {
		out = append(out, p)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].MediaID != out[j].MediaID {
			return out[i].MediaID < out[j].MediaID
		}
		return out[i].TagID < out[j].TagID
	})
	return out
}

func (m *mockTaggingRepo) TagIDsOfMedia(ctx context.Context, mediaID int64, p models.PageRequest) ([]int64, int, error) {
	ids := []int64{}
	for _, t := range m.sorted() {
		if t.MediaID == mediaID {
			ids = append(ids, t.TagID)
		}
	}
	return page(ids, p), len(ids), nil
}

func (m *mockTaggingRepo) MediaIDsWithTag(ctx context.Context, tagID int64, p models.PageRequest) ([]int64, int, error) {
	ids := []int64{}
	for _, t := range m.sorted() {
		if t.TagID == tagID {
			ids = append(ids, t.MediaID)
		}
	}
	return page(ids, p), len(ids), nil
}

func (m *mockTaggingRepo) List(ctx context.Context, p models.PageRequest) ([]models.Tagging, int, error) {
	all := m.sorted()
	return page(all, p), len(all), nil
}

type mockHierarchyRepo struct {
	items  map[int64]*models.Hierarchy
	nextID int64
}

func newMockHierarchyRepo() *mockHierarchyRepo {
	return &mockHierarchyRepo{items: map[int64]*models.Hierarchy{}}
}

func (m *mockHierarchyRepo) FindByID(ctx context.Context, id int64) (*models.Hierarchy, error) {
	if h, ok := m.items[id]; ok {
		cp := *h
		return &cp, nil
	}
	return nil, sql.ErrNoRows
}

func (m *mockHierarchyRepo) FindByKey(ctx context.Context, name string, tagSetID int64) (*models.Hierarchy, error) {
	for _, h := range m.items {
		if h.Name == name && h.TagSetID == tagSetID {
			cp := *h
			return &cp, nil
		}
	}
	return nil, sql.ErrNoRows
}

func (m *mockHierarchyRepo) LockByID(ctx context.Context, _ sqlx.ExtContext, id int64) (*models.Hierarchy, error) {
	return m.FindByID(ctx, id)
}

func (m *mockHierarchyRepo) Create(ctx context.Context, h *models.Hierarchy) error {
	m.nextID++
	h.ID = m.nextID
	cp := *h
	m.items[h.ID] = &cp
	return nil
}

func (m *mockHierarchyRepo) SetRoot(ctx context.Context, _ sqlx.ExtContext, hierarchyID int64, rootID sql.NullInt64) error {
	h, ok := m.items[hierarchyID]
	if !ok {
		return sql.ErrNoRows
	}
	h.RootNodeID = rootID
	return nil
}

func (m *mockHierarchyRepo) List(ctx context.Context, filter models.HierarchyFilter) ([]models.Hierarchy, int, error) {
	out := []models.Hierarchy{}
	for _, h := range m.items {
		if filter.TagSetID == 0 || h.TagSetID == filter.TagSetID {
			out = append(out, *h)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return page(out, filter.PageRequest), len(out), nil
}

type mockNodeRepo struct {
	items  map[int64]*models.Node
	nextID int64
}

func newMockNodeRepo() *mockNodeRepo {
	return &mockNodeRepo{items: map[int64]*models.Node{}}
}

func (m *mockNodeRepo) add(tagID, hierarchyID, parentID int64) *models.Node {
	node := &models.Node{TagID: tagID, HierarchyID: hierarchyID}
	if parentID != 0 {
		node.ParentNodeID = sql.NullInt64{Int64: parentID, Valid: true}
	}
	_ = m.Create(context.Background(), nil, node)
	return node
}

func (m *mockNodeRepo) FindByID(ctx context.Context, _ sqlx.ExtContext, id int64) (*models.Node, error) {
	if n, ok := m.items[id]; ok {
		cp := *n
		return &cp, nil
	}
	return nil, sql.ErrNoRows
}

func (m *mockNodeRepo) LockByID(ctx context.Context, exec sqlx.ExtContext, id int64) (*models.Node, error) {
	return m.FindByID(ctx, exec, id)
}

func (m *mockNodeRepo) FindRoot(ctx context.Context, _ sqlx.ExtContext, hierarchyID int64) (*models.Node, error) {
	for _, n := range m.items {
		if n.HierarchyID == hierarchyID && !n.ParentNodeID.Valid {
			cp := *n
			return &cp, nil
		}
	}
	return nil, sql.ErrNoRows
}

func (m *mockNodeRepo) FindChild(ctx context.Context, _ sqlx.ExtContext, tagID, hierarchyID, parentID int64) (*models.Node, error) {
	for _, n := range m.items {
		if n.TagID == tagID && n.HierarchyID == hierarchyID && n.ParentNodeID.Valid && n.ParentNodeID.Int64 == parentID {
			cp := *n
			return &cp, nil
		}
	}
	return nil, sql.ErrNoRows
}

func (m *mockNodeRepo) Create(ctx context.Context, _ sqlx.ExtContext, node *models.Node) error {
	m.nextID++
	node.ID = m.nextID
	cp := *node
	m.items[node.ID] = &cp
	return nil
}

func (m *mockNodeRepo) Children(ctx context.Context, _ sqlx.ExtContext, id int64) ([]models.Node, error) {
	out := []models.Node{}
	for _, n := range m.items {
		if n.ParentNodeID.Valid && n.ParentNodeID.Int64 == id {
			out = append(out, *n)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

// collides reports whether moving node under parent would break the
// (tag, hierarchy, parent) unique index.
func (m *mockNodeRepo) collides(node *models.Node, parent sql.NullInt64) bool {
	if !parent.Valid {
		return false
	}
	for _, other := range m.items {
		if other.ID != node.ID && other.TagID == node.TagID && other.HierarchyID == node.HierarchyID && other.ParentNodeID == parent {
			return true
		}
	}
	return false
}

func (m *mockNodeRepo) SetParent(ctx context.Context, _ sqlx.ExtContext, id int64, parent sql.NullInt64) error {
	n, ok := m.items[id]
	if !ok {
		return sql.ErrNoRows
	}
	if m.collides(n, parent) {
		return uniqueViolation()
	}
	n.ParentNodeID = parent
	return nil
}

func (m *mockNodeRepo) Reparent(ctx context.Context, _ sqlx.ExtContext, from int64, to sql.NullInt64) (int64, error) {
	var moving []*models.Node
	for _, n := range m.items {
		if n.ParentNodeID.Valid && n.ParentNodeID.Int64 == from {
			if m.collides(n, to) {
				return 0, uniqueViolation()
			}
			moving = append(moving, n)
		}
	}
	for _, n := range moving {
		n.ParentNodeID = to
	}
	return int64(len(moving)), nil
}

func (m *mockNodeRepo) Delete(ctx context.Context, _ sqlx.ExtContext, id int64) error {
	if _, ok := m.items[id]; !ok {
		return sql.ErrNoRows
	}
	delete(m.items, id)
	return nil
}

func (m *mockNodeRepo) List(ctx context.Context, filter models.NodeFilter) ([]models.Node, int, error) {
	out := []models.Node{}
	for _, n := range m.items {
		if filter.HierarchyID != 0 && n.HierarchyID != filter.HierarchyID {
			continue
		}
		if filter.TagID != 0 && n.TagID != filter.TagID {
			continue
		}
		if filter.ParentNodeID != 0 && (!n.ParentNodeID.Valid || n.ParentNodeID.Int64 != filter.ParentNodeID) {
			continue
		}
		if filter.RootOnly && n.ParentNodeID.Valid {
			continue
		}
		out = append(out, *n)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return page(out, filter.PageRequest), len(out), nil
}
