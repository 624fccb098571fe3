// Package port 定义工作流层对基础设施的依赖
package port

import (
	"context"

	"github.com/cloudwego/eino/components/model"
)

// ChatModelSource 按提供商名取得 ChatModel
//
// provider 为空时使用默认提供商；返回值中的名称是实际解析到的提供商，
// 用于指标与日志标签。
type ChatModelSource interface {
	ChatModel(ctx context.Context, provider string) (model.BaseChatModel, string, error)
}
