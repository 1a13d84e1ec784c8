package utils

import "k8s.io/klog/v2"

// ExtractJSON 从模型回复中提取第一个完整的 JSON 对象
// 兼容 ```json 代码块和前后说明文字，字符串内的花括号不参与计数
func ExtractJSON(content string) string {
	start := -1
	depth := 0
	inString := false
	escaped := false

	for i, ch := range content {
		if inString {
			switch {
			case escaped:
				escaped = false
			case ch == '\\':
				escaped = true
			case ch == '"':
				inString = false
			}
			continue
		}
		switch ch {
		case '"':
			if start != -1 {
				inString = true
			}
		case '{':
			if depth == 0 {
				start = i
			}
			depth++
		case '}':
			if depth == 0 {
				continue
			}
			depth--
			if depth == 0 && start != -1 {
				return content[start : i+1]
			}
		}
	}

	klog.V(6).Infof("[ExtractJSON] 未找到完整 JSON 对象，返回原始内容")
	return content
}
