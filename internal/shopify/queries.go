package shopify

// VariantSnapshotQuery fetches everything the classifier needs for one
// variant in a single round trip. Metafields come back as an edge list
// and are flattened into a namespace.key lookup map by the caller.
const VariantSnapshotQuery = `
query getVariantSnapshot($id: ID!) {
  productVariant(id: $id) {
    id
    createdAt
    price
    compareAtPrice
    product {
      id
      createdAt
    }
    metafields(first: 20) {
      edges {
        node {
          namespace
          key
          value
        }
      }
    }
  }
}
`

// VariantIDsPageQuery fetches one page of variant ids for bulk sync
const VariantIDsPageQuery = `
query getVariantIDs($first: Int!, $after: String) {
  productVariants(first: $first, after: $after) {
    pageInfo {
      hasNextPage
      endCursor
    }
    edges {
      node {
        id
      }
    }
  }
}
`

// WebhookSubscriptionsQuery lists subscriptions for the monitored topic.
// 100 is far above anything a healthy shop accumulates; duplicates past
// that point get cleaned up on the next restart.
const WebhookSubscriptionsQuery = `
query getWebhookSubscriptions($topics: [WebhookSubscriptionTopic!]) {
  webhookSubscriptions(first: 100, topics: $topics) {
    edges {
      node {
        id
        topic
        endpoint {
          __typename
          ... on WebhookHttpEndpoint {
            callbackUrl
          }
        }
      }
    }
  }
}
`
