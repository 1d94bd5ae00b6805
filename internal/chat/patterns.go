package chat

// DefaultPatternSet returns the built-in bilingual (Vietnamese/English) risk
// patterns. Matching is case-insensitive and diacritic-insensitive, so each
// phrase only needs to appear once in its toned form.
//
// Order matters: within a list the first match wins, so the most explicit
// phrases come first.
func DefaultPatternSet() PatternSet {
	return PatternSet{
		Red: []RiskPattern{
			// Direct self-harm intent
			{Tag: "intent_die_vi", Match: "muốn chết"},
			{Tag: "intent_die_vi2", Match: "không muốn sống"},
			{Tag: "intent_end_life_vi", Match: "kết thúc cuộc đời"},
			{Tag: "intent_suicide_vi", Match: "tự tử"},
			{Tag: "intent_suicide_vi2", Match: "tự sát"},
			{Tag: "intent_die_en", Match: "want to die"},
			{Tag: "intent_kill_self_en", Match: "kill myself"},
			{Tag: "intent_end_life_en", Match: "end my life"},
			{Tag: "intent_suicide_en", Match: "suicide"},

			// Methods
			{Tag: "method_cut_vi", Match: "rạch tay"},
			{Tag: "method_cut_vi2", Match: "cắt tay"},
			{Tag: "method_pills_vi", Match: "uống hết vỉ thuốc"},
			{Tag: "method_jump_vi", Match: "nhảy lầu"},
			{Tag: "method_cut_en", Match: "cut myself"},
			{Tag: "method_selfharm_en", Match: "hurt myself"},
			{Tag: "method_selfharm_en2", Match: "self harm"},

			// Abuse disclosure
			{Tag: "abuse_vi", Match: "bị bạo hành"},
			{Tag: "abuse_vi2", Match: "bị xâm hại"},
			{Tag: "abuse_vi3", Match: "bị đánh đập"},
			{Tag: "abuse_en", Match: "being abused"},

			// Concrete plan indicators
			{Tag: "plan_note_vi", Match: "viết thư tuyệt mệnh"},
			{Tag: "plan_prepared_vi", Match: "đã chuẩn bị sẵn"},
			{Tag: "plan_note_en", Match: "goodbye letter"},

			// Colloquial / Gen-Z euphemisms for suicidal ideation
			{Tag: "slang_sleep_vi", Match: "ngủ một giấc không dậy"},
			{Tag: "slang_disappear_vi", Match: "biến mất khỏi thế giới"},
			{Tag: "slang_unalive_en", Match: "unalive"},
			{Tag: "slang_kms_en", Match: "kms"},
			{Tag: "slang_better_off_en", Match: "better off dead"},
		},
		Yellow: []RiskPattern{
			// Persistent hopelessness
			{Tag: "hopeless_vi", Match: "tuyệt vọng"},
			{Tag: "hopeless_vi2", Match: "vô vọng"},
			{Tag: "hopeless_vi3", Match: "không còn ý nghĩa"},
			{Tag: "hopeless_en", Match: "hopeless"},
			{Tag: "hopeless_en2", Match: "no point anymore"},

			// Worthlessness
			{Tag: "worthless_vi", Match: "vô dụng"},
			{Tag: "worthless_vi2", Match: "không ai cần mình"},
			{Tag: "worthless_vi3", Match: "là gánh nặng"},
			{Tag: "worthless_en", Match: "worthless"},
			{Tag: "worthless_en2", Match: "nobody cares"},

			// Bullying
			{Tag: "bully_vi", Match: "bị bắt nạt"},
			{Tag: "bully_vi2", Match: "bị cô lập"},
			{Tag: "bully_en", Match: "bullied"},

			// Exhaustion / burnout idioms
			{Tag: "burnout_vi", Match: "kiệt sức"},
			{Tag: "burnout_vi2", Match: "chịu không nổi nữa"},
			{Tag: "burnout_vi3", Match: "mệt mỏi với mọi thứ"},
			{Tag: "burnout_en", Match: "burnt out"},
			{Tag: "burnout_en2", Match: "burned out"},
			{Tag: "burnout_en3", Match: "can't take it anymore"},

			// Isolation
			{Tag: "lonely_vi", Match: "không ai hiểu mình"},
			{Tag: "lonely_vi2", Match: "cô đơn lắm"},
		},
	}
}
