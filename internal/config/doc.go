// Package config 负责加载 ProfileFinder 的运行配置：先取内置默认值，再叠加
// YAML 配置文件、.env 文件以及 FINDER_* 环境变量。
package config
