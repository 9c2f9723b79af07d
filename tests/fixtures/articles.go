// Package fixtures provides reusable test data generators for integration tests.
// This package eliminates test data duplication and ensures consistent test content
// across different test suites.
package fixtures

import (
	"strings"
)

// ArticleOptions configures the generated article content.
type ArticleOptions struct {
	// Length is the approximate character count (target length, ±10% variance allowed)
	Length int

	// Language specifies the content language ("vietnamese" or "english")
	Language string

	// IncludeEmoji specifies whether to include emoji characters in the content
	IncludeEmoji bool
}

// GenerateArticle generates article content based on the provided options.
// The generated content is coherent Vietnamese or English news text suitable
// for summarization and chunking tests.
//
// Example:
//
//	article := GenerateArticle(ArticleOptions{
//	    Length: 2000,
//	    Language: "vietnamese",
//	    IncludeEmoji: false,
//	})
func GenerateArticle(opts ArticleOptions) string {
	if opts.Language == "english" {
		return buildArticle(englishSentences, englishEmojiSentences, opts.Length, opts.IncludeEmoji)
	}
	return buildArticle(vietnameseSentences, vietnameseEmojiSentences, opts.Length, opts.IncludeEmoji)
}

// GenerateShortArticle generates a short article (~500 characters), useful
// for exercising the enrichment short-content boundary.
func GenerateShortArticle() string {
	return GenerateArticle(ArticleOptions{
		Length:       500,
		Language:     "vietnamese",
		IncludeEmoji: false,
	})
}

// GenerateMediumArticle generates a medium-length article (~2000 characters),
// the typical size for chunking and summarization scenarios.
func GenerateMediumArticle() string {
	return GenerateArticle(ArticleOptions{
		Length:       2000,
		Language:     "vietnamese",
		IncludeEmoji: false,
	})
}

// GenerateLongArticle generates a long article (~10000 characters), useful
// for multi-chunk vector point derivation tests.
func GenerateLongArticle() string {
	return GenerateArticle(ArticleOptions{
		Length:       10000,
		Language:     "vietnamese",
		IncludeEmoji: false,
	})
}

// GenerateArticleWithEmoji generates an article that includes emoji
// characters, useful for Unicode character counting and handling tests.
func GenerateArticleWithEmoji() string {
	return GenerateArticle(ArticleOptions{
		Length:       2000,
		Language:     "vietnamese",
		IncludeEmoji: true,
	})
}

var vietnameseSentences = []string{
	"Nền kinh tế Việt Nam tiếp tục tăng trưởng ổn định trong quý vừa qua nhờ xuất khẩu và tiêu dùng nội địa.",
	"Ngân hàng Nhà nước giữ nguyên lãi suất điều hành để hỗ trợ doanh nghiệp phục hồi sản xuất kinh doanh.",
	"Chỉ số giá tiêu dùng tăng nhẹ so với cùng kỳ năm trước do giá lương thực và năng lượng biến động.",
	"Thị trường chứng khoán ghi nhận phiên giao dịch sôi động với thanh khoản cải thiện đáng kể.",
	"Dòng vốn đầu tư trực tiếp nước ngoài vào các khu công nghiệp phía Bắc tiếp tục tăng mạnh.",
	"Các doanh nghiệp dệt may đón nhận nhiều đơn hàng mới từ thị trường châu Âu và Bắc Mỹ.",
	"Giá xăng dầu trong nước được điều chỉnh theo diễn biến của thị trường thế giới.",
	"Ngành du lịch phục hồi nhanh với lượng khách quốc tế đến Việt Nam tăng cao so với năm trước.",
	"Xuất khẩu nông sản đạt kim ngạch kỷ lục nhờ nhu cầu lớn từ các thị trường châu Á.",
	"Chính phủ đẩy mạnh giải ngân vốn đầu tư công cho các dự án hạ tầng giao thông trọng điểm.",
	"Tỷ giá ngoại tệ duy trì ổn định trong biên độ điều hành của cơ quan quản lý.",
	"Nhiều ngân hàng thương mại công bố kết quả kinh doanh khả quan trong kỳ báo cáo gần nhất.",
	"Thị trường bất động sản có dấu hiệu ấm lên ở phân khúc nhà ở vừa túi tiền.",
	"Doanh nghiệp công nghệ trong nước mở rộng đầu tư vào trí tuệ nhân tạo và dữ liệu lớn.",
	"Sản lượng điện tiêu thụ tăng cao trong mùa nắng nóng đặt áp lực lên hệ thống truyền tải.",
}

var vietnameseEmojiSentences = []string{
	"Kinh tế số mở ra nhiều cơ hội tăng trưởng mới 🚀✨",
	"Chuyển đổi số đang tăng tốc trong mọi lĩnh vực 💻🌐",
	"Quyết định dựa trên dữ liệu ngày càng quan trọng 📊📈",
	"Đổi mới sáng tạo thúc đẩy phát triển bền vững 🔬🌟",
	"Hợp tác quốc tế mang lại triển vọng tích cực 🤝💡",
}

var englishSentences = []string{
	"Vietnam's economy continued its steady growth last quarter on strong exports and domestic consumption.",
	"The central bank held its policy rates unchanged to support businesses recovering production.",
	"Consumer prices rose slightly year on year as food and energy costs fluctuated.",
	"The stock market recorded an active session with notably improved liquidity.",
	"Foreign direct investment into northern industrial parks kept climbing.",
	"Textile firms received a wave of new orders from European and North American markets.",
	"Domestic fuel prices were adjusted in line with global market movements.",
	"Tourism rebounded quickly with international arrivals far above last year's figures.",
	"Agricultural exports hit a record on strong demand from Asian markets.",
	"The government accelerated public investment disbursement for key transport projects.",
	"Exchange rates stayed stable within the regulator's managed band.",
	"Several commercial banks reported upbeat earnings in the latest period.",
	"The property market showed signs of warming in the affordable housing segment.",
	"Domestic technology firms expanded investment in artificial intelligence and big data.",
	"Power consumption surged during the heatwave, straining the transmission grid.",
}

var englishEmojiSentences = []string{
	"The digital economy opens new growth opportunities 🚀✨",
	"Digital transformation is accelerating across sectors 💻🌐",
	"Data-driven decision making is essential 📊📈",
	"Innovation drives sustainable development 🔬🌟",
	"International cooperation brings a positive outlook 🤝💡",
}

// buildArticle stitches base sentences (and optionally emoji sentences) into
// a text of approximately targetLength runes, within ±10%.
func buildArticle(baseSentences, emojiSentences []string, targetLength int, includeEmoji bool) string {
	var builder strings.Builder
	currentLength := 0
	sentenceIndex := 0
	emojiIndex := 0

	for {
		var sentence string
		if includeEmoji && currentLength%(targetLength/5) < 100 && emojiIndex < len(emojiSentences) {
			sentence = emojiSentences[emojiIndex]
			emojiIndex++
		} else {
			sentence = baseSentences[sentenceIndex%len(baseSentences)]
			sentenceIndex++
		}

		sentenceLength := len([]rune(sentence))
		if currentLength > 0 {
			sentenceLength++ // separating space
		}
		potentialLength := currentLength + sentenceLength

		if currentLength >= int(float64(targetLength)*0.9) {
			if potentialLength > int(float64(targetLength)*1.1) {
				break
			}
		}

		if currentLength > 0 {
			builder.WriteString(" ")
		}

		builder.WriteString(sentence)
		currentLength = len([]rune(builder.String()))

		if currentLength >= targetLength {
			break
		}
	}

	return builder.String()
}
