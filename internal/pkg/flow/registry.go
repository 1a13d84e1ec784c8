package flow

import "fmt"

// Registry 按名称索引的 flow 集合，构建后只读
type Registry struct {
	flows map[string]Flow
	order []string
}

// NewRegistry 创建注册表，名称重复时返回错误
func NewRegistry(flows ...Flow) (*Registry, error) {
	r := &Registry{flows: make(map[string]Flow, len(flows))}
	for _, f := range flows {
		name := f.Info().Name
		if _, exists := r.flows[name]; exists {
			return nil, fmt.Errorf("duplicate flow name: %s", name)
		}
		r.flows[name] = f
		r.order = append(r.order, name)
	}
	return r, nil
}

// Get 根据名称获取 flow
func (r *Registry) Get(name string) (Flow, error) {
	f, ok := r.flows[name]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrFlowNotFound, name)
	}
	return f, nil
}

// List 按注册顺序返回所有 flow 描述
func (r *Registry) List() []Info {
	infos := make([]Info, 0, len(r.order))
	for _, name := range r.order {
		infos = append(infos, r.flows[name].Info())
	}
	return infos
}

// Len flow 数量
func (r *Registry) Len() int {
	return len(r.order)
}
