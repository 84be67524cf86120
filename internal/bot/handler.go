package bot

import (
	"context"
	"fmt"
	"unicode/utf8"

	"go.uber.org/zap"

	"github.com/haoyuedashi/meme-text-bot/internal/annotator"
	"github.com/haoyuedashi/meme-text-bot/internal/config"
	"github.com/haoyuedashi/meme-text-bot/internal/models"
	"github.com/haoyuedashi/meme-text-bot/internal/resolver"
	"github.com/haoyuedashi/meme-text-bot/internal/storage"
)

// Host is the subset of the host API the bot needs.
type Host interface {
	GetMessage(ctx context.Context, messageID int64) ([]models.Segment, error)
	SendText(ctx context.Context, target models.Target, text string) error
	SendImage(ctx context.Context, target models.Target, path string) error
}

// DownloadFunc fetches raw image bytes from a URL.
type DownloadFunc func(ctx context.Context, url string) ([]byte, error)

// Bot wires the caption pipeline: resolve args, locate the quoted
// image, download, annotate, send, clean up.
type Bot struct {
	cfg       *config.Config
	host      Host
	annotator *annotator.Annotator
	store     *storage.TempStore
	download  DownloadFunc
	logger    *zap.Logger
}

func New(
	cfg *config.Config,
	host Host,
	annot *annotator.Annotator,
	store *storage.TempStore,
	download DownloadFunc,
	logger *zap.Logger,
) *Bot {
	return &Bot{
		cfg:       cfg,
		host:      host,
		annotator: annot,
		store:     store,
		download:  download,
		logger:    logger,
	}
}

// Router builds the dispatch table: the caption prefix rule and the
// fixed help command.
func (b *Bot) Router() *Router {
	r := NewRouter(b.logger)
	r.Register(CommandRule(b.cfg.Bot.HelpCommand, b.HandleHelp))
	r.Register(PrefixRule(b.cfg.Bot.CommandPrefix, b.HandleCaption))
	return r
}

// HandleCaption processes one caption command. Every failure class
// reports its own message and ends the request; nothing is retried.
func (b *Bot) HandleCaption(ctx context.Context, event *models.MessageEvent, args string) {
	target := event.ReplyTarget()

	if args == "" {
		b.sendText(ctx, target, b.usageMessage())
		return
	}

	req := resolver.Resolve(args, resolver.Defaults{
		Color:    b.cfg.Bot.DefaultColor,
		Size:     b.cfg.Bot.DefaultSize,
		Position: b.cfg.Bot.DefaultPosition,
	})

	if req.Text == "" {
		b.sendText(ctx, target, "❌ 请输入要添加的文字")
		return
	}
	if utf8.RuneCountInString(req.Text) > b.cfg.Bot.MaxTextLength {
		b.sendText(ctx, target, fmt.Sprintf("❌ 文字过长，最多 %d 个字符", b.cfg.Bot.MaxTextLength))
		return
	}

	imageURL := b.replyImageURL(ctx, event)
	if imageURL == "" {
		b.sendText(ctx, target, "❌ 请引用一张图片（表情）后使用此命令")
		return
	}

	b.sendText(ctx, target, "⏳ 处理中...")

	data, err := b.download(ctx, imageURL)
	if err != nil {
		b.logger.Error("failed to download image", zap.String("url", imageURL), zap.Error(err))
		b.sendText(ctx, target, "❌ 图片下载失败")
		return
	}

	asset, err := b.annotator.Annotate(data, req)
	if err != nil {
		b.logger.Error("failed to annotate image", zap.Error(err))
		b.sendText(ctx, target, fmt.Sprintf("❌ 处理失败: %v", err))
		return
	}

	path, err := b.store.Write(asset.Data, asset.Ext())
	if err != nil {
		b.logger.Error("failed to write temp file", zap.Error(err))
		b.sendText(ctx, target, fmt.Sprintf("❌ 处理失败: %v", err))
		return
	}

	if err := b.host.SendImage(ctx, target, path); err != nil {
		b.logger.Error("failed to send image", zap.String("path", path), zap.Error(err))
	}
	b.store.Remove(path)
}

// HandleHelp replies with the static usage text.
func (b *Bot) HandleHelp(ctx context.Context, event *models.MessageEvent, _ string) {
	b.sendText(ctx, event.ReplyTarget(), b.helpMessage())
}

func (b *Bot) sendText(ctx context.Context, target models.Target, text string) {
	if err := b.host.SendText(ctx, target, text); err != nil {
		b.logger.Error("failed to send text reply", zap.Error(err))
	}
}

func (b *Bot) usageMessage() string {
	prefix := b.cfg.Bot.CommandPrefix
	return fmt.Sprintf("❌ 用法: %s 文字 [颜色] [字体大小] [位置] [描边]\n"+
		"示例: %s 我是帅哥 白色 中字体 下\n"+
		"颜色: 白色/黑色/红色/黄色/蓝色/绿色/粉色/紫色\n"+
		"大小: 小字体/中字体/大字体\n"+
		"位置: 上左/上中/上右/中左/中/中右/下左/下中/下右（兼容: 上/中/下）\n"+
		"描边: 白色描边/黑色描边", prefix, prefix)
}

func (b *Bot) helpMessage() string {
	prefix := b.cfg.Bot.CommandPrefix
	return fmt.Sprintf(`🎨 表情包添加文字插件

📝 使用方法
1. 引用一张表情图片
2. 发送: %s 文字

📌 完整命令
%s 文字 [颜色] [大小] [位置] [描边]
（参数顺序随意）

🎨 可用颜色
白色 黑色 红色 黄色 蓝色 绿色 粉色 紫色

📏 字体大小
小字体 中字体 大字体

📍 文字位置
上左 上中 上右
中左 中 中右
下左 下中 下右
（兼容旧写法：上/中/下）

✨ 描边效果
白色描边 黑色描边（不写则自动）

💡 示例
%s 哈哈哈
%s 帅哥 红色 大字体 上
%s 快跑 黄色 中字体 下右
%s 666 黑色 白色描边`, prefix, prefix, prefix, prefix, prefix, prefix)
}
