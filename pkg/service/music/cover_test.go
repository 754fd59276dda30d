package music

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

const testPlaceholder = "/static/img/default-cover.svg"

func newTestResolver(t *testing.T, store *fakeStore) (*CoverResolver, string) {
	t.Helper()
	dir := t.TempDir()
	return NewCoverResolver(store, dir, testPlaceholder), dir
}

func TestResolveEmbeddedPicture(t *testing.T) {
	resolver, dir := newTestResolver(t, newFakeStore())

	meta := &ExtractedMetadata{
		HasPicture:  true,
		PictureData: []byte("fake-jpeg-bytes"),
		PictureMIME: "image/jpeg",
	}
	obj := TrackObject{Key: "专辑/歌.mp3", Filename: "歌.mp3", Album: "专辑"}

	path, _, err := resolver.Resolve(context.Background(), meta, obj, nil)
	if err != nil {
		t.Fatalf("Resolve 失败: %v", err)
	}
	if !strings.HasPrefix(path, "/covers/") || !strings.HasSuffix(path, ".jpg") {
		t.Errorf("封面路径应为 /covers/<hash>.jpg 形式, 实际 %q", path)
	}

	// 文件应按内容哈希落盘
	entries, err := os.ReadDir(dir)
	if err != nil {
		t.Fatal(err)
	}
	if len(entries) != 1 {
		t.Fatalf("封面目录应恰有 1 个文件, 实际 %d", len(entries))
	}
}

func TestResolveEmbeddedBeatsSibling(t *testing.T) {
	store := newFakeStore()
	store.objects["Anthem/cover.jpg"] = []byte("sibling-cover-bytes")
	resolver, _ := newTestResolver(t, store)

	embedded := []byte("embedded-picture-bytes")
	meta := &ExtractedMetadata{
		HasPicture:  true,
		PictureData: embedded,
		PictureMIME: "image/jpeg",
	}
	obj := TrackObject{Key: "Anthem/track1.mp3", Filename: "track1.mp3", Album: "Anthem"}
	siblings := []TrackObject{
		{Key: "Anthem/track1.mp3", Filename: "track1.mp3", Album: "Anthem"},
		{Key: "Anthem/cover.jpg", Filename: "cover.jpg", Album: "Anthem"},
	}

	path, _, err := resolver.Resolve(context.Background(), meta, obj, siblings)
	if err != nil {
		t.Fatalf("Resolve 失败: %v", err)
	}

	// 内嵌图优先于同目录封面文件，路径必须是内嵌图内容的哈希
	wantHash := sha256.Sum256(embedded)
	wantPath := "/covers/" + hex.EncodeToString(wantHash[:]) + ".jpg"
	if path != wantPath {
		t.Errorf("同时存在内嵌图和同目录封面时应取内嵌图: 得到 %q, 期望 %q", path, wantPath)
	}
}

func TestResolveDeduplicatesByContent(t *testing.T) {
	resolver, dir := newTestResolver(t, newFakeStore())
	data := []byte("same-image-bytes")

	meta := &ExtractedMetadata{HasPicture: true, PictureData: data, PictureMIME: "image/png"}
	obj1 := TrackObject{Key: "专辑A/1.mp3", Filename: "1.mp3", Album: "专辑A"}
	obj2 := TrackObject{Key: "专辑B/2.mp3", Filename: "2.mp3", Album: "专辑B"}

	path1, _, err := resolver.Resolve(context.Background(), meta, obj1, nil)
	if err != nil {
		t.Fatal(err)
	}
	path2, _, err := resolver.Resolve(context.Background(), meta, obj2, nil)
	if err != nil {
		t.Fatal(err)
	}

	if path1 != path2 {
		t.Errorf("相同内容应得到相同路径: %q != %q", path1, path2)
	}
	if !strings.HasSuffix(path1, ".png") {
		t.Errorf("PNG 封面应以 .png 结尾, 实际 %q", path1)
	}

	entries, _ := os.ReadDir(dir)
	if len(entries) != 1 {
		t.Errorf("去重后封面目录应只有 1 个文件, 实际 %d", len(entries))
	}
}

func TestResolveSiblingCover(t *testing.T) {
	store := newFakeStore()
	store.objects["专辑/Cover.JPG"] = []byte("sibling-cover-bytes")
	resolver, _ := newTestResolver(t, store)

	meta := &ExtractedMetadata{}
	obj := TrackObject{Key: "专辑/歌.mp3", Filename: "歌.mp3", Album: "专辑"}
	siblings := []TrackObject{
		{Key: "专辑/歌.mp3", Filename: "歌.mp3", Album: "专辑"},
		{Key: "专辑/Cover.JPG", Filename: "Cover.JPG", Album: "专辑"},
	}

	path, _, err := resolver.Resolve(context.Background(), meta, obj, siblings)
	if err != nil {
		t.Fatalf("Resolve 失败: %v", err)
	}
	if !strings.HasPrefix(path, "/covers/") {
		t.Errorf("同目录封面应被持久化, 实际 %q", path)
	}
}

func TestResolvePlaceholderWhenNothingFound(t *testing.T) {
	resolver, _ := newTestResolver(t, newFakeStore())

	meta := &ExtractedMetadata{}
	obj := TrackObject{Key: "专辑/歌.mp3", Filename: "歌.mp3", Album: "专辑"}
	siblings := []TrackObject{
		{Key: "专辑/歌.mp3", Filename: "歌.mp3", Album: "专辑"},
		{Key: "专辑/notes.txt", Filename: "notes.txt", Album: "专辑"},
	}

	path, color, err := resolver.Resolve(context.Background(), meta, obj, siblings)
	if err != nil {
		t.Fatalf("占位图回退不应报错: %v", err)
	}
	if path != testPlaceholder {
		t.Errorf("应返回占位图 %q, 实际 %q", testPlaceholder, path)
	}
	if color != "" {
		t.Errorf("占位图不应有主色调, 实际 %q", color)
	}
}

func TestResolveSiblingFetchFailure(t *testing.T) {
	store := newFakeStore()
	store.objects["专辑/cover.jpg"] = []byte("x")
	store.fetchErr["专辑/cover.jpg"] = context.DeadlineExceeded
	resolver, _ := newTestResolver(t, store)

	meta := &ExtractedMetadata{}
	obj := TrackObject{Key: "专辑/歌.mp3", Filename: "歌.mp3", Album: "专辑"}
	siblings := []TrackObject{{Key: "专辑/cover.jpg", Filename: "cover.jpg", Album: "专辑"}}

	path, _, err := resolver.Resolve(context.Background(), meta, obj, siblings)
	if err == nil {
		t.Fatal("获取封面失败时应返回错误供调用方记录")
	}
	if path != testPlaceholder {
		t.Errorf("失败时应降级为占位图, 实际 %q", path)
	}
}

func TestFindSiblingCover(t *testing.T) {
	tests := []struct {
		name     string
		objects  []TrackObject
		expected string
	}{
		{
			name: "大小写不敏感",
			objects: []TrackObject{
				{Key: "a/FOLDER.PNG", Filename: "FOLDER.PNG"},
			},
			expected: "a/FOLDER.PNG",
		},
		{
			name: "非白名单名称不命中",
			objects: []TrackObject{
				{Key: "a/front.jpg", Filename: "front.jpg"},
				{Key: "a/artwork.jpeg", Filename: "artwork.jpeg"},
			},
			expected: "a/artwork.jpeg",
		},
		{
			name: "白名单名称但非图片扩展不命中",
			objects: []TrackObject{
				{Key: "a/cover.txt", Filename: "cover.txt"},
			},
			expected: "",
		},
		{
			name:     "空列表",
			objects:  nil,
			expected: "",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			found := findSiblingCover(tt.objects)
			got := ""
			if found != nil {
				got = found.Key
			}
			if got != tt.expected {
				t.Errorf("findSiblingCover = %q, 期望 %q", got, tt.expected)
			}
		})
	}
}

func TestPersistWritesContentAddressedFile(t *testing.T) {
	resolver, dir := newTestResolver(t, newFakeStore())

	path, _, err := resolver.persist([]byte("hello"), ".jpg")
	if err != nil {
		t.Fatal(err)
	}

	filename := strings.TrimPrefix(path, "/covers/")
	onDisk := filepath.Join(dir, filename)
	data, err := os.ReadFile(onDisk)
	if err != nil {
		t.Fatalf("落盘文件不存在: %v", err)
	}
	if string(data) != "hello" {
		t.Errorf("落盘内容不符: %q", data)
	}
	// SHA-256 十六进制长度为 64
	if len(filename) != 64+len(".jpg") {
		t.Errorf("文件名应为 64 位哈希加扩展名, 实际 %q", filename)
	}
}
