package store

// 注意：此包只包含实现，接口定义在 core 包。
// 使用 core.Store / core.KeyValueStore / core.PolicyStore 接口。
//
// 示例：
//   var kv core.KeyValueStore = NewMemoryStore()
//   var ps core.PolicyStore = NewPolicyStore(kv, "")
