package notify

import "fmt"

// VerificationSMS 验证码短信
func VerificationSMS(code string, minutes int) string {
	return fmt.Sprintf("【HiHiTutor】你的驗證碼是 %s，%d 分鐘內有效。", code, minutes)
}

// WelcomeEmail 注册成功邮件
func WelcomeEmail(to, name, userCode string) Message {
	return Message{
		To:      to,
		Subject: "歡迎加入 HiHiTutor",
		Text:    fmt.Sprintf("%s 你好，\n\n你的帳戶已建立，用戶編號為 %s。\n\nHiHiTutor", name, userCode),
	}
}

// PasswordResetEmail 密码已重设通知
func PasswordResetEmail(to, name string) Message {
	return Message{
		To:      to,
		Subject: "HiHiTutor 密碼已重設",
		Text:    fmt.Sprintf("%s 你好，\n\n你的帳戶密碼剛剛已被重設。如非本人操作，請立即聯絡我們。\n\nHiHiTutor", name),
	}
}

// ProfileReviewedEmail 资料审批结果通知
func ProfileReviewedEmail(to, name string, approved bool, reason string) Message {
	if approved {
		return Message{
			To:      to,
			Subject: "HiHiTutor 導師資料已通過審批",
			Text:    fmt.Sprintf("%s 你好，\n\n你的導師資料已通過審批並公開顯示。\n\nHiHiTutor", name),
		}
	}
	text := fmt.Sprintf("%s 你好，\n\n你的導師資料未能通過審批。", name)
	if reason != "" {
		text += "\n原因：" + reason
	}
	return Message{
		To:      to,
		Subject: "HiHiTutor 導師資料審批結果",
		Text:    text + "\n\nHiHiTutor",
	}
}
