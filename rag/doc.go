// Copyright 2025-2026 AgentFlow Authors. All rights reserved.
// Use of this source code is governed by the project license.

/*
# 概述

Package rag provides the document-retrieval surface tasks.RetrievalTask
builds on: chunking, an in-memory vector store, a semantic cache, and
loaders that turn raw sources (CSV/JSON/Markdown/text files, GitHub repos,
arXiv papers) into Documents a vector store can index.

# 核心接口/类型

  - VectorStore — 向量数据库统一接口（AddDocuments / Search / Delete / Update / Count）
  - Tokenizer — RAG 分块专用分词器接口
  - LowLevelSearchResult — agent/memory 的裸向量存储返回的搜索结果形状

# 主要能力

  - 文档分块：固定大小、递归两种策略（DocumentChunker）
  - 向量存储：内存实现（InMemoryVectorStore），Search/AddDocuments/Count/ClearAll
  - 语义缓存：基于向量相似度的查询结果缓存（SemanticCache）
  - 文档加载：CSV/JSON/Markdown/纯文本文件，以及 rag/sources 的 GitHub/arXiv 适配器
*/
package rag
