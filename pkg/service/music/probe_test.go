package music

import (
	"bytes"
	"encoding/binary"
	"testing"
)

// buildWAV 构造一个 44100Hz/双声道/16bit、时长 1 秒的合法 WAV 头
func buildWAV() []byte {
	var buf bytes.Buffer
	dataSize := 176400 // 1秒的PCM数据

	buf.WriteString("RIFF")
	binary.Write(&buf, binary.LittleEndian, uint32(36+dataSize))
	buf.WriteString("WAVE")
	buf.WriteString("fmt ")
	binary.Write(&buf, binary.LittleEndian, uint32(16))
	binary.Write(&buf, binary.LittleEndian, uint16(1))      // PCM
	binary.Write(&buf, binary.LittleEndian, uint16(2))      // 声道
	binary.Write(&buf, binary.LittleEndian, uint32(44100))  // 采样率
	binary.Write(&buf, binary.LittleEndian, uint32(176400)) // 字节率
	binary.Write(&buf, binary.LittleEndian, uint16(4))
	binary.Write(&buf, binary.LittleEndian, uint16(16))
	buf.WriteString("data")
	binary.Write(&buf, binary.LittleEndian, uint32(dataSize))
	buf.Write(make([]byte, dataSize))

	return buf.Bytes()
}

// buildFLAC 构造带 STREAMINFO 的最小 FLAC 头：44100Hz/双声道/441000采样点（10秒）
func buildFLAC() []byte {
	var buf bytes.Buffer
	buf.WriteString("fLaC")
	buf.Write([]byte{0x80, 0x00, 0x00, 0x22}) // 最后一个块, 类型0, 长度34

	info := make([]byte, 34)
	info[10] = 0x0A // 采样率 44100 的高8位
	info[11] = 0xC4
	info[12] = 0x42 // 采样率低4位 + 声道数2(编码为1)
	info[14] = 0x00 // 总采样点 441000
	info[15] = 0x06
	info[16] = 0xBA
	info[17] = 0xA8
	buf.Write(info)

	buf.Write(make([]byte, 100000)) // 模拟音频帧数据
	return buf.Bytes()
}

// buildOGG 构造带 Vorbis 识别头的单页 OGG：44100Hz/双声道, granule=441000（10秒）
func buildOGG() []byte {
	var buf bytes.Buffer
	buf.WriteString("OggS")
	buf.Write([]byte{0, 0}) // 版本 + 头类型
	binary.Write(&buf, binary.LittleEndian, uint64(441000))
	buf.Write(make([]byte, 13)) // 序列号/页号/校验和/段数

	buf.WriteString("\x01vorbis")
	buf.Write(make([]byte, 4)) // vorbis 版本
	buf.WriteByte(2)           // 声道
	binary.Write(&buf, binary.LittleEndian, uint32(44100))

	buf.Write(make([]byte, 50000))
	return buf.Bytes()
}

// buildMPEG2MP3 构造 MPEG2 Layer III 帧流：64kbps / 22050Hz / 单声道，
// 帧长 72*64000/22050 = 208 字节。每帧帧体内埋一个伪装的 MPEG1 帧头
// (128kbps / 44100Hz)，只有逐帧精确跳转才不会误读到它
func buildMPEG2MP3() []byte {
	const frameSize = 208
	frame := make([]byte, frameSize)
	frame[0] = 0xFF
	frame[1] = 0xF3 // MPEG2, Layer III
	frame[2] = 0x80 // 码率索引 8 (64kbps), 采样率索引 0 (22050)
	frame[3] = 0xC0 // 单声道
	copy(frame[100:], []byte{0xFF, 0xFB, 0x90, 0x00})

	var buf bytes.Buffer
	for i := 0; i < 40; i++ {
		buf.Write(frame)
	}
	return buf.Bytes()
}

func TestProbeMP3MPEG2FrameStep(t *testing.T) {
	props := ProbeAudioProperties(buildMPEG2MP3(), "test.mp3")

	if props.Codec != "MP3" {
		t.Errorf("编码应为 MP3, 实际 %q", props.Codec)
	}
	if props.SampleRate != 22050 {
		t.Errorf("采样率应为 22050, 实际 %d", props.SampleRate)
	}
	if props.BitRateKbps != 64 {
		t.Errorf("码率应为 64 kbps, 实际 %d", props.BitRateKbps)
	}
	if props.Channels != 1 {
		t.Errorf("声道数应为 1, 实际 %d", props.Channels)
	}
	if props.DurationSeconds != 1 {
		t.Errorf("时长应为 1 秒, 实际 %d", props.DurationSeconds)
	}
}

func TestProbeWAV(t *testing.T) {
	props := ProbeAudioProperties(buildWAV(), "test.wav")

	if props.Codec != "PCM" {
		t.Errorf("编码应为 PCM, 实际 %q", props.Codec)
	}
	if props.SampleRate != 44100 {
		t.Errorf("采样率应为 44100, 实际 %d", props.SampleRate)
	}
	if props.Channels != 2 {
		t.Errorf("声道数应为 2, 实际 %d", props.Channels)
	}
	if props.DurationSeconds != 1 {
		t.Errorf("时长应为 1 秒, 实际 %d", props.DurationSeconds)
	}
	if props.BitRateKbps != 1411 {
		t.Errorf("码率应为 1411 kbps, 实际 %d", props.BitRateKbps)
	}
}

func TestProbeFLAC(t *testing.T) {
	props := ProbeAudioProperties(buildFLAC(), "test.flac")

	if props.Codec != "FLAC" {
		t.Errorf("编码应为 FLAC, 实际 %q", props.Codec)
	}
	if props.SampleRate != 44100 {
		t.Errorf("采样率应为 44100, 实际 %d", props.SampleRate)
	}
	if props.Channels != 2 {
		t.Errorf("声道数应为 2, 实际 %d", props.Channels)
	}
	if props.DurationSeconds != 10 {
		t.Errorf("时长应为 10 秒, 实际 %d", props.DurationSeconds)
	}
}

func TestProbeOGG(t *testing.T) {
	props := ProbeAudioProperties(buildOGG(), "test.ogg")

	if props.Codec != "Vorbis" {
		t.Errorf("编码应为 Vorbis, 实际 %q", props.Codec)
	}
	if props.SampleRate != 44100 {
		t.Errorf("采样率应为 44100, 实际 %d", props.SampleRate)
	}
	if props.DurationSeconds != 10 {
		t.Errorf("时长应为 10 秒, 实际 %d", props.DurationSeconds)
	}
}

func TestProbeFallbacks(t *testing.T) {
	tests := []struct {
		name     string
		filename string
		data     []byte
		codec    string
	}{
		{name: "损坏的mp3退化为估算", filename: "bad.mp3", data: make([]byte, 1000), codec: "MP3"},
		{name: "损坏的flac退化为估算", filename: "bad.flac", data: []byte("not a flac"), codec: "FLAC"},
		{name: "m4a直接估算", filename: "ok.m4a", data: make([]byte, 320000), codec: "AAC"},
		{name: "空文件", filename: "empty.wav", data: nil, codec: "PCM"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			props := ProbeAudioProperties(tt.data, tt.filename)
			if props.Codec != tt.codec {
				t.Errorf("编码应为 %q, 实际 %q", tt.codec, props.Codec)
			}
			if props.DurationSeconds < 0 {
				t.Errorf("时长不应为负数: %d", props.DurationSeconds)
			}
		})
	}
}

func TestEstimate(t *testing.T) {
	// 10 秒 128kbps ≈ 160000 字节
	props := estimate(160000, 128, "MP3")
	if props.DurationSeconds != 10 {
		t.Errorf("估算时长应为 10 秒, 实际 %d", props.DurationSeconds)
	}
	if props.BitRateKbps != 128 {
		t.Errorf("估算码率应为 128, 实际 %d", props.BitRateKbps)
	}
}
