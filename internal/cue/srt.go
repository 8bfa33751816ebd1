// Package cue 读取 SubRip 字幕并模拟网页播放器逐条渲染字幕
package cue

import (
	"bufio"
	"fmt"
	"io"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/abadojack/whatlanggo"
)

// Cue 一条字幕
type Cue struct {
	Index int
	Start time.Duration
	End   time.Duration
	Lines []string
}

// Text 字幕文本，多行以换行连接
func (c Cue) Text() string {
	return strings.Join(c.Lines, "\n")
}

// Duration 显示时长
func (c Cue) Duration() time.Duration {
	return c.End - c.Start
}

var timingPattern = regexp.MustCompile(`(\d{1,2}):(\d{2}):(\d{2})[,.](\d{3})\s*-->\s*(\d{1,2}):(\d{2}):(\d{2})[,.](\d{3})`)

// ParseSRT 解析 SRT 字幕
func ParseSRT(r io.Reader) ([]Cue, error) {
	var cues []Cue
	scanner := bufio.NewScanner(r)

	current := Cue{}
	state := "index" // index, time, text
	lineNo := 0

	flush := func() {
		if len(current.Lines) > 0 {
			cues = append(cues, current)
		}
		current = Cue{}
		state = "index"
	}

	for scanner.Scan() {
		lineNo++
		line := strings.TrimSpace(scanner.Text())
		if lineNo == 1 {
			line = strings.TrimPrefix(line, "\ufeff")
		}

		switch state {
		case "index":
			if line == "" {
				continue
			}
			index, err := strconv.Atoi(line)
			if err != nil {
				continue // 跳过非序号行
			}
			current.Index = index
			state = "time"

		case "time":
			if line == "" {
				continue
			}
			start, end, err := parseTiming(line)
			if err != nil {
				return nil, fmt.Errorf("line %d: %w", lineNo, err)
			}
			current.Start, current.End = start, end
			state = "text"

		case "text":
			if line == "" {
				flush()
				continue
			}
			current.Lines = append(current.Lines, line)
		}
	}
	if state == "text" {
		flush()
	}

	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("failed to read subtitles: %w", err)
	}
	return cues, nil
}

// parseTiming 解析 00:02:16,612 --> 00:02:19,376
func parseTiming(s string) (time.Duration, time.Duration, error) {
	m := timingPattern.FindStringSubmatch(s)
	if len(m) != 9 {
		return 0, 0, fmt.Errorf("invalid time format: %s", s)
	}

	start := toDuration(m[1], m[2], m[3], m[4])
	end := toDuration(m[5], m[6], m[7], m[8])
	if end < start {
		return 0, 0, fmt.Errorf("cue ends before it starts: %s", s)
	}
	return start, end, nil
}

func toDuration(hours, minutes, seconds, millis string) time.Duration {
	h, _ := strconv.Atoi(hours)
	m, _ := strconv.Atoi(minutes)
	s, _ := strconv.Atoi(seconds)
	ms, _ := strconv.Atoi(millis)

	return time.Duration(h)*time.Hour +
		time.Duration(m)*time.Minute +
		time.Duration(s)*time.Second +
		time.Duration(ms)*time.Millisecond
}

// DetectLanguage 按多数字幕的识别结果返回 ISO 639-1 代码，无法识别时返回空串
func DetectLanguage(cues []Cue) string {
	counts := make(map[string]int)
	for _, c := range cues {
		if code := whatlanggo.DetectLang(c.Text()).Iso6391(); code != "" {
			counts[code]++
		}
	}

	var top string
	var topCount int
	for code, n := range counts {
		if n > topCount || (n == topCount && code < top) {
			top, topCount = code, n
		}
	}
	return top
}
