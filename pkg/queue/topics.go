// Package queue 定义消息主题常量，供发布/订阅使用.
package queue

// 主题命名规范：iv.<域>.<动作>.
const (
	// 图片领域.
	TopicImageStored  = "iv.image.stored"  // 原图已写入对象存储且元数据已落库
	TopicImageDeleted = "iv.image.deleted" // 图片及其缩略图、链接记录已删除

	// 过期链接领域.
	TopicLinkIssued   = "iv.link.issued"   // 签发或替换了 (image, identifier) 的链接
	TopicLinkEvicted  = "iv.link.evicted"  // 过期记录在读取时被删除
	TopicLinkRedeemed = "iv.link.redeemed" // 链接兑换成功
)

// 主题分组.
var (
	ImageTopics = []string{TopicImageStored, TopicImageDeleted}
	LinkTopics  = []string{TopicLinkIssued, TopicLinkEvicted, TopicLinkRedeemed}
)
