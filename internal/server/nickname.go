package server

import (
	"fmt"
	"math/rand/v2"
)

// 昵称词库
var (
	adjectives = []string{
		"飞快的", "认真的", "爱笑的", "迷糊的", "机灵的",
		"沉着的", "热情的", "安静的", "好奇的", "幸运的",
		"倔强的", "贪玩的", "专注的", "淘气的", "稳重的",
	}

	nouns = []string{
		"棋手", "画家", "拼图师", "记忆王", "答题家",
		"接龙侠", "小蛇", "猫头鹰", "海獭", "松鼠",
		"企鹅", "狐狸", "熊猫", "刺猬", "柯基",
	}
)

// GenerateNickname 生成随机昵称，带两位数字后缀以减少重名
func GenerateNickname() string {
	adj := adjectives[rand.IntN(len(adjectives))]
	noun := nouns[rand.IntN(len(nouns))]
	return fmt.Sprintf("%s%s%02d", adj, noun, rand.IntN(100))
}
