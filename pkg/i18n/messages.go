package i18n

// Page copy keys. The names match the keys the front end reads.
const (
	KeyTitle              = "title"
	KeyEmail              = "email"
	KeyPhone              = "phone"
	KeyRemarks            = "remarks"
	KeySubmit             = "submit"
	KeySuccess            = "success"
	KeyEmailPlaceholder   = "emailPlaceholder"
	KeyPhonePlaceholder   = "phonePlaceholder"
	KeyRemarksPlaceholder = "remarksPlaceholder"
	KeyToggle             = "toggle"
)

// Validation and submission messages.
const (
	KeyEmailLength    = "validation.email_length"
	KeyEmailFormat    = "validation.email_format"
	KeyPhoneLength    = "validation.phone_length"
	KeyRemarksLength  = "validation.remarks_length"
	KeyErrDuplicate   = "submit.duplicate"
	KeyErrUnavailable = "submit.unavailable"
	KeyErrRejected    = "submit.rejected"
	KeyErrTransport   = "submit.transport"
	KeyErrInFlight    = "submit.in_flight"
)

var pageKeys = []string{
	KeyTitle,
	KeyEmail,
	KeyPhone,
	KeyRemarks,
	KeySubmit,
	KeySuccess,
	KeyEmailPlaceholder,
	KeyPhonePlaceholder,
	KeyRemarksPlaceholder,
	KeyToggle,
}

var tables = map[Language]map[string]string{
	Chinese: {
		KeyTitle:              "加入内测队列计划",
		KeyEmail:              "电子邮箱",
		KeyPhone:              "电话（选填）",
		KeyRemarks:            "备注（选填）",
		KeySubmit:             "提交申请",
		KeySuccess:            "感谢您报名参加内测！我们会尽快与您联系。",
		KeyEmailPlaceholder:   "请输入您的电子邮箱",
		KeyPhonePlaceholder:   "请输入您的电话号码",
		KeyRemarksPlaceholder: "请输入任何其他信息或期望",
		KeyToggle:             "中/EN",

		KeyEmailLength:    "邮箱长度应在 5 到 50 个字符之间",
		KeyEmailFormat:    "邮箱格式不正确",
		KeyPhoneLength:    "电话长度不能超过 50 个字符",
		KeyRemarksLength:  "备注长度不能超过 255 个字符",
		KeyErrDuplicate:   "邮箱已存在: %s",
		KeyErrUnavailable: "服务暂时不可用: %s",
		KeyErrRejected:    "提交被拒绝: %s",
		KeyErrTransport:   "提交表单时出错: %s",
		KeyErrInFlight:    "正在提交，请勿重复提交",
	},
	English: {
		KeyTitle:              "Join Beta Testing Program",
		KeyEmail:              "Email",
		KeyPhone:              "Phone (optional)",
		KeyRemarks:            "Remarks (optional)",
		KeySubmit:             "Submit Application",
		KeySuccess:            "Thank you for signing up for beta testing! We will contact you soon.",
		KeyEmailPlaceholder:   "Enter your email address",
		KeyPhonePlaceholder:   "Enter your phone number",
		KeyRemarksPlaceholder: "Enter any additional information or expectations",
		KeyToggle:             "中/EN",

		KeyEmailLength:    "Email must be between 5 and 50 characters",
		KeyEmailFormat:    "Invalid email format",
		KeyPhoneLength:    "Phone must be at most 50 characters",
		KeyRemarksLength:  "Remarks must be at most 255 characters",
		KeyErrDuplicate:   "email already exists: %s",
		KeyErrUnavailable: "service unavailable: %s",
		KeyErrRejected:    "submission rejected: %s",
		KeyErrTransport:   "error submitting form: %s",
		KeyErrInFlight:    "Your application is already being submitted",
	},
}
