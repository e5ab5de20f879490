package content

// 内置默认话术，与 StreaminDoDo 一直对外使用的文案保持一致。

const defaultSocialLinks = `🌐 Follow us on all platforms:

🎮 Twitch: /streamindodo
📺 YouTube: /streamindodo
🐦 Twitter: @streamindodo
💬 Discord: discord.gg/streamindodo
📸 Instagram: @streamindodo
📱 TikTok: @streamindodo
💼 LinkedIn: /company/streamindodo
📢 Telegram: t.me/streamindodo

Thanks for your support! 💖`

const defaultSchedule = `📅 Streaming Schedule:

🌅 Monday-Friday: 9 AM - 12 PM (UTC)
🌆 Saturday-Sunday: 2 PM - 6 PM (UTC)

🎯 Special events and announcements will be posted on all social media platforms!

⏰ Current time zone: UTC
📢 Follow us for schedule updates!`

const defaultFeedbackPrompt = `📝 We'd love your feedback!

Please let us know:
• What you enjoy about the stream
• Any technical issues you've experienced
• Content suggestions
• Platform preferences

Just type your feedback and I'll make sure it gets to the team! 💬`

const defaultViewerCount = "👥 Viewer count tracking is being implemented. Stay tuned!"

const defaultUnknown = "🤖 I'm not sure how to help with that yet. Try asking about the stream status, schedule, or social links!"

const defaultGenericTips = `🛠️ General troubleshooting:
• Refresh the page
• Clear browser cache
• Try a different browser
• Check your internet connection

If issues persist, contact a moderator!`

// defaultTips 返回默认的故障排查话术。
// 列表顺序即匹配优先级：lag/buffer 先于 audio/sound，再先于 video。
func defaultTips() []TipList {
	return []TipList{
		{
			Topic:    "lag",
			Keywords: []string{"lag", "buffer"},
			Message: `🔧 For buffering/lag issues:
• Refresh the stream
• Try a lower quality setting
• Check your internet connection
• Clear browser cache`,
		},
		{
			Topic:    "audio",
			Keywords: []string{"audio", "sound"},
			Message: `🔊 For audio issues:
• Check your volume settings
• Try refreshing the page
• Ensure your browser allows audio
• Try a different browser`,
		},
		{
			Topic:    "video",
			Keywords: []string{"video"},
			Message: `📺 For video issues:
• Refresh the stream
• Try a different quality setting
• Check if hardware acceleration is enabled
• Update your browser`,
		},
	}
}
