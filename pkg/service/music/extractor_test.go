package music

import (
	"testing"
)

func TestExtractFallbackChain(t *testing.T) {
	e := NewExtractor()

	tests := []struct {
		name          string
		obj           TrackObject
		data          []byte
		expectedTitle string
		expectedAlbum string
	}{
		{
			name:          "无标签时标题退化为文件名",
			obj:           TrackObject{Key: "叶惠美/晴天.mp3", Filename: "晴天.mp3", Album: "叶惠美"},
			data:          make([]byte, 2048),
			expectedTitle: "晴天",
			expectedAlbum: "叶惠美",
		},
		{
			name:          "根目录文件归入Singles",
			obj:           TrackObject{Key: "demo.wav", Filename: "demo.wav", Album: SinglesAlbum},
			data:          buildWAV(),
			expectedTitle: "demo",
			expectedAlbum: SinglesAlbum,
		},
		{
			name:          "无扩展名的文件名整体作为标题",
			obj:           TrackObject{Key: "misc/track", Filename: "track", Album: "misc"},
			data:          []byte("garbage"),
			expectedTitle: "track",
			expectedAlbum: "misc",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			meta := e.Extract(tt.obj, tt.data)
			if meta.Title != tt.expectedTitle {
				t.Errorf("标题应为 %q, 实际 %q", tt.expectedTitle, meta.Title)
			}
			if meta.Album != tt.expectedAlbum {
				t.Errorf("专辑应为 %q, 实际 %q", tt.expectedAlbum, meta.Album)
			}
		})
	}
}

func TestExtractMergesAudioProperties(t *testing.T) {
	e := NewExtractor()
	obj := TrackObject{Key: "demo.wav", Filename: "demo.wav", Album: SinglesAlbum}
	data := buildWAV()

	meta := e.Extract(obj, data)

	if meta.SampleRate != 44100 {
		t.Errorf("采样率应为 44100, 实际 %d", meta.SampleRate)
	}
	if meta.Channels != 2 {
		t.Errorf("声道数应为 2, 实际 %d", meta.Channels)
	}
	if meta.Codec != "PCM" {
		t.Errorf("编码应为 PCM, 实际 %q", meta.Codec)
	}
	if meta.FileSize != int64(len(data)) {
		t.Errorf("文件大小应为 %d, 实际 %d", len(data), meta.FileSize)
	}
}

func TestStripExt(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected string
	}{
		{name: "普通文件名", input: "晴天.mp3", expected: "晴天"},
		{name: "多个点", input: "a.b.flac", expected: "a.b"},
		{name: "无扩展名", input: "track", expected: "track"},
		{name: "点开头的隐藏文件", input: ".hidden", expected: ".hidden"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := stripExt(tt.input); got != tt.expected {
				t.Errorf("stripExt(%q) = %q, 期望 %q", tt.input, got, tt.expected)
			}
		})
	}
}

func TestFirstGenre(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected string
	}{
		{name: "单个流派", input: "Pop", expected: "Pop"},
		{name: "空字符分隔", input: "Rock\x00Pop", expected: "Rock"},
		{name: "分号分隔", input: "Jazz; Blues", expected: "Jazz"},
		{name: "空串", input: "", expected: ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := firstGenre(tt.input); got != tt.expected {
				t.Errorf("firstGenre(%q) = %q, 期望 %q", tt.input, got, tt.expected)
			}
		})
	}
}
