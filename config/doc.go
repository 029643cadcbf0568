// Package config 提供 AgentFlow 的配置管理功能。
//
// 包含配置加载、热重载、配置 API 和变更历史管理。
// 支持从文件、环境变量和命令行参数加载配置，
// 并提供运行时热重载能力。
package config
