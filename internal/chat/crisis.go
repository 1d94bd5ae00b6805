package chat

// Crisis (red-tier) response content. Static and human-reviewed: a red-tier
// request must never reach the model, so nothing here is generated.

var crisisHotlines = []string{
	"Gọi 111 — Tổng đài quốc gia bảo vệ trẻ em, miễn phí, 24/7",
	"Gọi 115 nếu em đang gặp nguy hiểm ngay bây giờ",
	"Đường dây nóng Ngày Mai: 096 306 1414 — hỗ trợ tâm lý miễn phí",
	"Nhắn với một người lớn mà em tin tưởng: bố mẹ, thầy cô, hoặc người thân",
}

const crisisReplyText = "Mình thật sự lo cho em ngay lúc này. Những gì em đang cảm thấy rất nặng nề, " +
	"và em không phải vượt qua nó một mình đâu. Hãy liên hệ ngay với một trong những nơi dưới đây — " +
	"họ luôn sẵn sàng lắng nghe em, bất kể giờ nào."

const crisisDisclaimer = "Đây là tin nhắn hỗ trợ khẩn cấp được soạn sẵn, không phải phản hồi của AI. " +
	"Tâm Sự không thay thế chuyên gia tâm lý."

// CrisisResponse returns the fixed crisis payload. It is identical in both
// delivery modes; only the framing differs. Returned with HTTP 200 so clients
// render it as a normal (if urgent) assistant turn.
func CrisisResponse() *ChatResponse {
	disclaimer := crisisDisclaimer
	actions := make([]string, len(crisisHotlines))
	copy(actions, crisisHotlines)

	return &ChatResponse{
		SOS:      true,
		SOSLevel: string(RiskRed),
		StructuredReply: StructuredReply{
			RiskLevel:    RiskRed,
			Emotion:      "khủng hoảng",
			Reply:        crisisReplyText,
			NextQuestion: "",
			Actions:      actions,
			Confidence:   1,
			Disclaimer:   &disclaimer,
		},
	}
}
