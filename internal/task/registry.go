package task

import (
	"sync"

	"github.com/medref/revision-service/internal/app"
)

// TaskFactory 根据 App 构造任务；返回 (nil, nil) 表示该任务未启用
type TaskFactory func(appContainer *app.App) (Task, error)

var registry struct {
	sync.Mutex
	factories []TaskFactory
}

// RegisterWithApp 登记任务工厂，在各任务文件的 init() 中调用
func RegisterWithApp(factory TaskFactory) {
	registry.Lock()
	registry.factories = append(registry.factories, factory)
	registry.Unlock()
}

// GetFactories 按登记顺序返回工厂列表的副本
func GetFactories() []TaskFactory {
	registry.Lock()
	defer registry.Unlock()
	return append([]TaskFactory(nil), registry.factories...)
}
