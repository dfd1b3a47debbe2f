package domain

// KeyPrefix namespaces every key searchcore writes to the shared KV store.
const KeyPrefix = "searchcore:"
