package music

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/anzhiyu-c/anheyu-music/internal/infra/storage"
	"github.com/anzhiyu-c/anheyu-music/pkg/constant"
	"github.com/anzhiyu-c/anheyu-music/pkg/domain/model"
)

// fakeStore 是测试用的内存对象存储
type fakeStore struct {
	objects  map[string][]byte
	listErr  error
	fetchErr map[string]error
}

func newFakeStore() *fakeStore {
	return &fakeStore{
		objects:  make(map[string][]byte),
		fetchErr: make(map[string]error),
	}
}

func (s *fakeStore) List(ctx context.Context, prefix string) ([]storage.ObjectInfo, error) {
	if s.listErr != nil {
		return nil, s.listErr
	}
	keys := make([]string, 0, len(s.objects))
	for key := range s.objects {
		if strings.HasPrefix(key, prefix) {
			keys = append(keys, key)
		}
	}
	sort.Strings(keys)

	infos := make([]storage.ObjectInfo, 0, len(keys))
	for _, key := range keys {
		infos = append(infos, storage.ObjectInfo{
			Key:          key,
			Size:         int64(len(s.objects[key])),
			LastModified: time.Now(),
		})
	}
	return infos, nil
}

func (s *fakeStore) FetchBytes(ctx context.Context, key string) ([]byte, error) {
	if err, ok := s.fetchErr[key]; ok {
		return nil, err
	}
	data, ok := s.objects[key]
	if !ok {
		return nil, storage.ErrObjectNotFound
	}
	return data, nil
}

func (s *fakeStore) Head(ctx context.Context, key string) (*storage.ObjectInfo, error) {
	data, ok := s.objects[key]
	if !ok {
		return nil, storage.ErrObjectNotFound
	}
	return &storage.ObjectInfo{Key: key, Size: int64(len(data))}, nil
}

func (s *fakeStore) AccessURL(ctx context.Context, key string, presigned bool) (string, error) {
	if presigned {
		return fmt.Sprintf("https://bucket.example.com/%s?sig=abc&expires=3600", key), nil
	}
	return "https://bucket.example.com/" + key, nil
}

func (s *fakeStore) KeyFromAccessURL(accessURL string) (string, error) {
	const prefix = "https://bucket.example.com/"
	if !strings.HasPrefix(accessURL, prefix) {
		return "", fmt.Errorf("无法识别的访问地址: %s", accessURL)
	}
	return strings.TrimPrefix(accessURL, prefix), nil
}

// fakeTrackRepo 是测试用的内存曲目仓储
type fakeTrackRepo struct {
	mu     sync.Mutex
	nextID uint
	byID   map[uint]*model.Track
}

func newFakeTrackRepo() *fakeTrackRepo {
	return &fakeTrackRepo{nextID: 1, byID: make(map[uint]*model.Track)}
}

func (r *fakeTrackRepo) FindByIdentity(ctx context.Context, identity string) (*model.Track, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, track := range r.byID {
		if track.Identity == identity {
			clone := *track
			return &clone, nil
		}
	}
	return nil, constant.ErrNotFound
}

func (r *fakeTrackRepo) FindByPublicID(ctx context.Context, publicID string) (*model.Track, error) {
	return nil, constant.ErrNotFound
}

func (r *fakeTrackRepo) Create(ctx context.Context, track *model.Track) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	track.ID = r.nextID
	r.nextID++
	clone := *track
	r.byID[track.ID] = &clone
	return nil
}

func (r *fakeTrackRepo) Update(ctx context.Context, track *model.Track) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	existing, ok := r.byID[track.ID]
	if !ok {
		return constant.ErrNotFound
	}
	clone := *track
	// 与真实实现一致：更新永不触碰播放计数
	clone.PlayCount = existing.PlayCount
	r.byID[track.ID] = &clone
	return nil
}

func (r *fakeTrackRepo) IncrementPlayCount(ctx context.Context, id uint) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	track, ok := r.byID[id]
	if !ok {
		return constant.ErrNotFound
	}
	track.PlayCount++
	return nil
}

func (r *fakeTrackRepo) List(ctx context.Context, offset, limit int) ([]*model.Track, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var tracks []*model.Track
	for _, track := range r.byID {
		clone := *track
		tracks = append(tracks, &clone)
	}
	sort.Slice(tracks, func(i, j int) bool { return tracks[i].ID < tracks[j].ID })
	return tracks, nil
}

func (r *fakeTrackRepo) Count(ctx context.Context) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.byID), nil
}

// fakeMetaRepo 是测试用的内存扩展元数据仓储
type fakeMetaRepo struct {
	mu      sync.Mutex
	byTrack map[uint]*model.TrackMetadata
}

func newFakeMetaRepo() *fakeMetaRepo {
	return &fakeMetaRepo{byTrack: make(map[uint]*model.TrackMetadata)}
}

func (r *fakeMetaRepo) Replace(ctx context.Context, meta *model.TrackMetadata) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	clone := *meta
	r.byTrack[meta.TrackID] = &clone
	return nil
}

func (r *fakeMetaRepo) FindByTrackID(ctx context.Context, trackID uint) (*model.TrackMetadata, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	meta, ok := r.byTrack[trackID]
	if !ok {
		return nil, constant.ErrNotFound
	}
	clone := *meta
	return &clone, nil
}
