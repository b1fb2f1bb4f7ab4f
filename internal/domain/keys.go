package domain

// KeyPrefix namespaces every key doclens writes to the store.
const KeyPrefix = "doclens:"
