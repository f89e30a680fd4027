package imagesearch

import (
	"context"
	"errors"
	"sort"
	"sync"

	"github.com/xiebiao/mall/internal/domain/product"
	"github.com/xiebiao/mall/internal/infrastructure/imageloader"
	"github.com/xiebiao/mall/pkg/baidu"
)

// fakeProductRepo 内存商品仓储
// 读写都复制实体,用例对实体的修改只有调用UpdateIndexState后才生效
type fakeProductRepo struct {
	mu       sync.Mutex
	products map[uint]*product.Product
	images   map[uint][]*product.Image
	params   map[uint][]*product.Param

	findErr   map[uint]error
	updateErr error
	updates   int
}

func newFakeProductRepo() *fakeProductRepo {
	return &fakeProductRepo{
		products: map[uint]*product.Product{},
		images:   map[uint][]*product.Image{},
		params:   map[uint][]*product.Param{},
		findErr:  map[uint]error{},
	}
}

func (r *fakeProductRepo) add(p *product.Product, primaryURL string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	cp := *p
	r.products[p.ID] = &cp
	if primaryURL != "" {
		r.images[p.ID] = append(r.images[p.ID], &product.Image{ID: p.ID * 100, ProductID: p.ID, URL: primaryURL, IsPrimary: true})
	}
}

func (r *fakeProductRepo) get(id uint) *product.Product {
	r.mu.Lock()
	defer r.mu.Unlock()
	if p, ok := r.products[id]; ok {
		cp := *p
		return &cp
	}
	return nil
}

func (r *fakeProductRepo) snapshot() map[uint]product.Product {
	r.mu.Lock()
	defer r.mu.Unlock()
	snap := make(map[uint]product.Product, len(r.products))
	for id, p := range r.products {
		snap[id] = *p
	}
	return snap
}

func (r *fakeProductRepo) restore(snap map[uint]product.Product) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.products = make(map[uint]*product.Product, len(snap))
	for id, p := range snap {
		cp := p
		r.products[id] = &cp
	}
}

func (r *fakeProductRepo) FindByID(ctx context.Context, id uint) (*product.Product, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if err := r.findErr[id]; err != nil {
		return nil, err
	}
	p, ok := r.products[id]
	if !ok {
		return nil, product.ErrProductNotFound
	}
	cp := *p
	return &cp, nil
}

func (r *fakeProductRepo) FindPrimaryImage(ctx context.Context, productID uint) (*product.Image, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, img := range r.images[productID] {
		if img.IsPrimary {
			return img, nil
		}
	}
	return nil, product.ErrNoPrimaryImage
}

func (r *fakeProductRepo) FindPrimaryImages(ctx context.Context, productIDs []uint) (map[uint]*product.Image, error) {
	out := map[uint]*product.Image{}
	for _, id := range productIDs {
		if img, err := r.FindPrimaryImage(ctx, id); err == nil {
			out[id] = img
		}
	}
	return out, nil
}

func (r *fakeProductRepo) ListImages(ctx context.Context, productID uint) ([]*product.Image, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]*product.Image{}, r.images[productID]...), nil
}

func (r *fakeProductRepo) ListParams(ctx context.Context, productID uint) ([]*product.Param, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]*product.Param{}, r.params[productID]...), nil
}

func (r *fakeProductRepo) UpdateIndexState(ctx context.Context, p *product.Product) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.updateErr != nil {
		return r.updateErr
	}
	stored, ok := r.products[p.ID]
	if !ok {
		return product.ErrProductNotFound
	}
	stored.ContSign = p.ContSign
	stored.IndexStatus = p.IndexStatus
	stored.IndexedAt = p.IndexedAt
	r.updates++
	return nil
}

func (r *fakeProductRepo) ListByIndexStatus(ctx context.Context, params product.ListParams) ([]*product.Product, int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	matched := make([]*product.Product, 0)
	for _, p := range r.products {
		if (p.IndexStatus == product.IndexStatusIndexed) != params.Indexed {
			continue
		}
		if params.CategoryID > 0 && p.CategoryID != params.CategoryID {
			continue
		}
		cp := *p
		matched = append(matched, &cp)
	}
	sort.Slice(matched, func(i, j int) bool { return matched[i].ID > matched[j].ID })

	total := int64(len(matched))
	start := (params.Page - 1) * params.PageSize
	if start > len(matched) {
		start = len(matched)
	}
	end := start + params.PageSize
	if end > len(matched) {
		end = len(matched)
	}
	return matched[start:end], total, nil
}

func (r *fakeProductRepo) CountByIndexStatus(ctx context.Context) (map[product.IndexStatus]int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	counts := map[product.IndexStatus]int64{}
	for _, p := range r.products {
		counts[p.IndexStatus]++
	}
	return counts, nil
}

// fakeIndexRepo 内存签名映射
type fakeIndexRepo struct {
	mu      sync.Mutex
	entries map[string]*product.IndexEntry
	saveErr error
	findErr error
}

func newFakeIndexRepo() *fakeIndexRepo {
	return &fakeIndexRepo{entries: map[string]*product.IndexEntry{}}
}

func (r *fakeIndexRepo) Save(ctx context.Context, entry *product.IndexEntry) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.saveErr != nil {
		return r.saveErr
	}
	cp := *entry
	r.entries[entry.ContSign] = &cp
	return nil
}

func (r *fakeIndexRepo) FindByContSign(ctx context.Context, contSign string) (*product.IndexEntry, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.findErr != nil {
		return nil, r.findErr
	}
	e, ok := r.entries[contSign]
	if !ok {
		return nil, product.ErrIndexEntryNotFound
	}
	cp := *e
	return &cp, nil
}

func (r *fakeIndexRepo) DeleteByContSign(ctx context.Context, contSign string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.entries, contSign)
	return nil
}

func (r *fakeIndexRepo) has(contSign string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	_, ok := r.entries[contSign]
	return ok
}

// fakeTx 出错时回滚两个内存仓储
type fakeTx struct {
	products *fakeProductRepo
	index    *fakeIndexRepo
}

func (tx *fakeTx) Transaction(ctx context.Context, fn func(ctx context.Context) error) error {
	snap := tx.products.snapshot()
	tx.index.mu.Lock()
	entries := make(map[string]*product.IndexEntry, len(tx.index.entries))
	for k, v := range tx.index.entries {
		entries[k] = v
	}
	tx.index.mu.Unlock()

	if err := fn(ctx); err != nil {
		tx.products.restore(snap)
		tx.index.mu.Lock()
		tx.index.entries = entries
		tx.index.mu.Unlock()
		return err
	}
	return nil
}

// fakeSearcher 按label返回签名或错误
type fakeSearcher struct {
	mu sync.Mutex

	signs     map[string]string // label → cont_sign
	enrollErr map[string]error  // label → error
	removeErr map[string]error  // cont_sign → error
	hits      []baidu.Hit
	searchErr error

	enrolled   []string // label
	enrolledAt []string // 图片地址
	removed    []string // cont_sign
	searchPN   int
	searchRN   int
}

func newFakeSearcher() *fakeSearcher {
	return &fakeSearcher{
		signs:     map[string]string{},
		enrollErr: map[string]error{},
		removeErr: map[string]error{},
	}
}

func (s *fakeSearcher) Enroll(ctx context.Context, src imageloader.Source, label string) (*baidu.AddResult, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.enrolled = append(s.enrolled, label)
	s.enrolledAt = append(s.enrolledAt, src.Ref)
	if err := s.enrollErr[label]; err != nil {
		return nil, err
	}
	sign, ok := s.signs[label]
	if !ok {
		sign = "sign-" + label
	}
	return &baidu.AddResult{ContSign: sign, LogID: "1"}, nil
}

func (s *fakeSearcher) FindSimilar(ctx context.Context, src imageloader.Source, pn, rn int) ([]baidu.Hit, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.searchPN, s.searchRN = pn, rn
	if s.searchErr != nil {
		return nil, s.searchErr
	}
	return append([]baidu.Hit{}, s.hits...), nil
}

func (s *fakeSearcher) Remove(ctx context.Context, contSign string) (*baidu.DeleteResult, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.removed = append(s.removed, contSign)
	if err := s.removeErr[contSign]; err != nil {
		return nil, err
	}
	return &baidu.DeleteResult{LogID: "2"}, nil
}

// fakePublisher 记录事件
type fakePublisher struct {
	mu     sync.Mutex
	err    error
	events []publishedEvent
}

type publishedEvent struct {
	key   string
	event IndexEvent
}

func (p *fakePublisher) Publish(ctx context.Context, routingKey string, payload interface{}) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if e, ok := payload.(IndexEvent); ok {
		p.events = append(p.events, publishedEvent{key: routingKey, event: e})
	}
	return p.err
}

var errBoom = errors.New("boom")

func strPtr(s string) *string { return &s }
