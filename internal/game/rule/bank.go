package rule

// DefaultQuestions 内置题库
var DefaultQuestions = StaticQuestions{
	{Prompt: "地球上面积最大的大洋是？", Options: []string{"大西洋", "印度洋", "太平洋", "北冰洋"}, Correct: 2},
	{Prompt: "一年中白昼最长的节气是？", Options: []string{"春分", "夏至", "秋分", "冬至"}, Correct: 1},
	{Prompt: "光在真空中的速度约为每秒多少千米？", Options: []string{"30 万", "3 万", "300 万", "3 千"}, Correct: 0},
	{Prompt: "围棋棋盘有多少条纵线？", Options: []string{"15", "17", "19", "21"}, Correct: 2},
	{Prompt: "下列哪种动物属于哺乳动物？", Options: []string{"鲨鱼", "海豚", "海龟", "章鱼"}, Correct: 1},
	{Prompt: "水的化学式是？", Options: []string{"CO2", "H2O", "NaCl", "O2"}, Correct: 1},
	{Prompt: "太阳系中体积最大的行星是？", Options: []string{"土星", "地球", "木星", "海王星"}, Correct: 2},
	{Prompt: "一副标准扑克牌（不含大小王）有多少张？", Options: []string{"48", "52", "54", "56"}, Correct: 1},
	{Prompt: "二进制数 1010 等于十进制的？", Options: []string{"8", "10", "12", "5"}, Correct: 1},
	{Prompt: "《三国演义》的作者是？", Options: []string{"施耐庵", "吴承恩", "罗贯中", "曹雪芹"}, Correct: 2},
}

// DefaultWords 内置你画我猜词库
var DefaultWords = StaticWords{
	"苹果", "飞机", "长颈鹿", "雨伞", "月亮", "自行车", "西瓜", "灯塔",
	"企鹅", "吉他", "火山", "风筝", "雪人", "眼镜", "蜗牛", "彩虹",
}
