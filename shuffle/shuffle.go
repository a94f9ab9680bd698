// Package shuffle 可复现的种子派生与 Fisher-Yates 洗牌
//
// 种子取自 SHA-256 摘要，跨进程一致。每次 Shuffle 使用独立的生成器，调用之间不共享状态
package shuffle

import (
	"strconv"
	"strings"
	"time"

	"policy_reco/utils"
)

const (
	lcgMultiplier = 1103515245
	lcgIncrement  = 12345
	lcgModulus    = 1 << 31

	seedSeparator = "|"
	seedHexDigits = 8
)

// StableSeed 用 "|" 拼接各部分，取 SHA-256 摘要前 8 位十六进制的整数值
func StableSeed(parts ...string) uint64 {
	digest := utils.SHA256Hex(strings.Join(parts, seedSeparator))
	seed, _ := strconv.ParseUint(digest[:seedHexDigits], 16, 64)
	return seed
}

// DailySeed 同一身份在同一 UTC 日内得到相同的种子
func DailySeed(identity string, day time.Time) uint64 {
	return StableSeed(identity, day.UTC().Format("20060102"))
}

// LCG 使用 ANSI C 常数的线性同余生成器
type LCG struct {
	state uint64
}

// NewLCG 以 seed mod 2^31 作为初始状态
func NewLCG(seed uint64) *LCG {
	return &LCG{state: seed % lcgModulus}
}

// Next 推进一步并返回新状态
func (g *LCG) Next() uint64 {
	g.state = (lcgMultiplier*g.state + lcgIncrement) % lcgModulus
	return g.state
}

// Shuffle 用新建的 LCG 驱动 Fisher-Yates 原地打乱
func Shuffle[T any](items []T, seed uint64) {
	g := NewLCG(seed)
	for i := len(items) - 1; i > 0; i-- {
		j := int(g.Next() % uint64(i+1))
		items[i], items[j] = items[j], items[i]
	}
}
