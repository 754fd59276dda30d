/*
 * @Description: 音频属性探测 - 直接读取二进制头部获得时长/码率/采样率/声道
 * @Author: 安知鱼
 * @Date: 2026-02-11 19:45:02
 * @LastEditTime: 2026-02-11 19:45:02
 * @LastEditors: 安知鱼
 */
package music

import (
	"bytes"
	"encoding/binary"
	"math"
	"path/filepath"
	"strings"
)

// AudioProperties 是探测得到的音频物理属性。
// dhowden/tag 只解析标签帧，不解析音频帧，因此时长和码率需要
// 在这里从二进制头部自行读出。
type AudioProperties struct {
	DurationSeconds int
	BitRateKbps     int
	SampleRate      int
	Channels        int
	Codec           string
}

// ProbeAudioProperties 按扩展名分派到对应格式的头部解析。
// 所有路径都保证返回可用结果：解析失败时退化为按文件大小和
// 格式典型码率的估算，绝不让单个对象因此失败。
func ProbeAudioProperties(data []byte, filename string) AudioProperties {
	ext := strings.ToLower(filepath.Ext(filename))

	switch ext {
	case ".mp3":
		return probeMP3(data)
	case ".flac":
		return probeFLAC(data)
	case ".ogg":
		return probeOGG(data)
	case ".wav":
		return probeWAV(data)
	case ".m4a":
		// M4A 的 box 结构解析成本高，沿用典型 AAC 码率估算
		return estimate(int64(len(data)), 256, "AAC")
	default:
		return estimate(int64(len(data)), 128, strings.ToUpper(strings.TrimPrefix(ext, ".")))
	}
}

// estimate 按假定码率从文件大小推算时长
func estimate(size int64, bitrateKbps int, codec string) AudioProperties {
	duration := 0
	if bitrateKbps > 0 {
		duration = int(size * 8 / (int64(bitrateKbps) * 1000))
	}
	return AudioProperties{
		DurationSeconds: duration,
		BitRateKbps:     bitrateKbps,
		Codec:           codec,
	}
}

// mp3 码率表（kbps）：MPEG1 Layer III 与 MPEG2/2.5 Layer III
var (
	mp3BitrateV1L3 = []int{0, 32, 40, 48, 56, 64, 80, 96, 112, 128, 160, 192, 224, 256, 320, 0}
	mp3BitrateV2L3 = []int{0, 8, 16, 24, 32, 40, 48, 56, 64, 80, 96, 112, 128, 144, 160, 0}
)

// mp3 采样率表，按版本位索引
var mp3SampleRates = map[byte][]int{
	3: {44100, 48000, 32000}, // MPEG 1
	2: {22050, 24000, 16000}, // MPEG 2
	0: {11025, 12000, 8000},  // MPEG 2.5
}

// probeMP3 顺序扫描 MP3 帧头。抽样前 100 帧求平均码率，
// 再按文件大小反推总时长。
func probeMP3(data []byte) AudioProperties {
	size := int64(len(data))

	var totalFrames, totalBitrate int64
	var sampleRate, channels int

	i := 0
	for i+4 <= len(data) {
		// 帧同步字：连续 11 个置位
		if data[i] != 0xFF || (data[i+1]&0xE0) != 0xE0 {
			i++
			continue
		}

		version := (data[i+1] >> 3) & 0x03
		bitrateIndex := (data[i+2] >> 4) & 0x0F
		sampleRateIndex := (data[i+2] >> 2) & 0x03
		padding := (data[i+2] >> 1) & 0x01
		channelMode := (data[i+3] >> 6) & 0x03

		bitrate := mp3FrameBitrate(version, bitrateIndex)
		if bitrate == 0 {
			i++
			continue
		}
		rates, ok := mp3SampleRates[version]
		if !ok || sampleRateIndex >= 3 {
			i++
			continue
		}
		sampleRate = rates[sampleRateIndex]

		if channelMode == 3 {
			channels = 1
		} else {
			channels = 2
		}

		totalFrames++
		totalBitrate += int64(bitrate)

		// 跳到下一帧；抽样 100 帧已足够估算平均码率。
		// MPEG2/2.5 的 Layer III 每帧样本数减半，帧长系数为 72
		coeff := 144
		if version != 3 {
			coeff = 72
		}
		frameSize := (coeff*bitrate*1000)/sampleRate + int(padding)
		if frameSize <= 4 {
			i += 4
		} else {
			i += frameSize
		}
		if totalFrames >= 100 {
			break
		}
	}

	if totalFrames > 0 && sampleRate > 0 {
		avgBitrate := int(totalBitrate / totalFrames)
		if avgBitrate > 0 {
			duration := int(math.Round(float64(size*8) / float64(avgBitrate*1000)))
			return AudioProperties{
				DurationSeconds: duration,
				BitRateKbps:     avgBitrate,
				SampleRate:      sampleRate,
				Channels:        channels,
				Codec:           "MP3",
			}
		}
	}

	return estimate(size, 128, "MP3")
}

func mp3FrameBitrate(version, bitrateIndex byte) int {
	if bitrateIndex >= 15 {
		return 0
	}
	if version == 3 { // MPEG 1
		return mp3BitrateV1L3[bitrateIndex]
	}
	return mp3BitrateV2L3[bitrateIndex]
}

// probeFLAC 解析 STREAMINFO 元数据块
func probeFLAC(data []byte) AudioProperties {
	size := int64(len(data))
	if len(data) < 4 || string(data[:4]) != "fLaC" {
		return estimate(size, 1000, "FLAC")
	}

	i := 4
	for i+4 <= len(data) {
		blockType := data[i] & 0x7F
		last := data[i]&0x80 != 0
		blockSize := int(data[i+1])<<16 | int(data[i+2])<<8 | int(data[i+3])
		i += 4

		if blockType == 0 && i+18 <= len(data) { // STREAMINFO
			info := data[i : i+18]
			sampleRate := int(info[10])<<12 | int(info[11])<<4 | int(info[12])>>4
			channels := int((info[12]>>1)&0x07) + 1
			totalSamples := int64(info[13]&0x0F)<<32 | int64(info[14])<<24 |
				int64(info[15])<<16 | int64(info[16])<<8 | int64(info[17])

			if sampleRate > 0 && totalSamples > 0 {
				durationSec := float64(totalSamples) / float64(sampleRate)
				bitrate := int(float64(size*8) / durationSec / 1000)
				return AudioProperties{
					DurationSeconds: int(math.Round(durationSec)),
					BitRateKbps:     bitrate,
					SampleRate:      sampleRate,
					Channels:        channels,
					Codec:           "FLAC",
				}
			}
			break
		}

		i += blockSize
		if last {
			break
		}
	}

	return estimate(size, 1000, "FLAC")
}

// probeOGG 从首页识别编码器，从尾部页读取最后的 granule position
func probeOGG(data []byte) AudioProperties {
	size := int64(len(data))
	if len(data) < 27 || string(data[:4]) != "OggS" {
		return estimate(size, 192, "OGG")
	}

	codec := "OGG"
	sampleRate := 48000
	channels := 2
	// 首页负载里找 Vorbis / Opus 识别头
	head := data
	if len(head) > 512 {
		head = head[:512]
	}
	if idx := bytes.Index(head, []byte("\x01vorbis")); idx >= 0 && idx+16 <= len(data) {
		codec = "Vorbis"
		channels = int(data[idx+11])
		sampleRate = int(binary.LittleEndian.Uint32(data[idx+12 : idx+16]))
	} else if idx := bytes.Index(head, []byte("OpusHead")); idx >= 0 && idx+10 <= len(data) {
		codec = "Opus"
		channels = int(data[idx+9])
		sampleRate = 48000 // Opus 的 granule 始终按 48kHz 计
	}

	// 从尾部 64KB 逆向找最后一个 OggS 页，取 granule position
	tail := data
	if len(tail) > 65536 {
		tail = tail[len(tail)-65536:]
	}
	var lastGranule int64
	for i := len(tail) - 27; i >= 0; i-- {
		if string(tail[i:i+4]) == "OggS" {
			lastGranule = int64(binary.LittleEndian.Uint64(tail[i+6 : i+14]))
			break
		}
	}

	if lastGranule > 0 && sampleRate > 0 {
		durationSec := float64(lastGranule) / float64(sampleRate)
		if durationSec > 0 {
			bitrate := int(float64(size*8) / durationSec / 1000)
			return AudioProperties{
				DurationSeconds: int(math.Round(durationSec)),
				BitRateKbps:     bitrate,
				SampleRate:      sampleRate,
				Channels:        channels,
				Codec:           codec,
			}
		}
	}

	return estimate(size, 192, codec)
}

// probeWAV 解析 RIFF fmt 块
func probeWAV(data []byte) AudioProperties {
	size := int64(len(data))
	if len(data) < 12 || string(data[:4]) != "RIFF" || string(data[8:12]) != "WAVE" {
		return estimate(size, 1411, "PCM")
	}

	i := 12
	for i+8 <= len(data) {
		chunkID := string(data[i : i+4])
		chunkSize := int(binary.LittleEndian.Uint32(data[i+4 : i+8]))
		i += 8

		if chunkID == "fmt " && i+16 <= len(data) {
			channels := int(binary.LittleEndian.Uint16(data[i+2 : i+4]))
			sampleRate := int(binary.LittleEndian.Uint32(data[i+4 : i+8]))
			byteRate := int(binary.LittleEndian.Uint32(data[i+8 : i+12]))

			if byteRate > 0 {
				durationSec := float64(size-44) / float64(byteRate)
				return AudioProperties{
					DurationSeconds: int(math.Round(durationSec)),
					BitRateKbps:     byteRate * 8 / 1000,
					SampleRate:      sampleRate,
					Channels:        channels,
					Codec:           "PCM",
				}
			}
			break
		}

		i += chunkSize
	}

	return estimate(size, 1411, "PCM")
}
