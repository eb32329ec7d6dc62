package anilist

// DefaultEndpoint 是 AniList 公共 GraphQL 接口。
const DefaultEndpoint = "https://graphql.anilist.co"

const completedListQuery = `
query ($name: String) {
  MediaListCollection(userName: $name, type: ANIME) {
    lists {
      name
      entries {
        score
        media {
          id
          title { romaji english }
          genres
          tags { name rank }
          coverImage { extraLarge }
        }
      }
    }
  }
}`

const allListQuery = `
query ($name: String) {
  MediaListCollection(userName: $name, type: ANIME) {
    lists {
      name
      entries {
        media { id title { romaji } }
      }
    }
  }
}`

const recommendationsQuery = `
query ($id: Int, $perPage: Int) {
  Media(id: $id, type: ANIME) {
    recommendations(perPage: $perPage) {
      nodes {
        mediaRecommendation {
          id
          title { romaji english }
          genres
          tags { name rank }
          coverImage { extraLarge }
        }
      }
    }
  }
}`

const byGenreQuery = `
query ($genre: String, $perPage: Int) {
  Page(perPage: $perPage) {
    media(genre: $genre, type: ANIME, sort: [SCORE_DESC, POPULARITY_DESC]) {
      id
      title { romaji english }
      genres
      tags { name rank }
      coverImage { extraLarge }
    }
  }
}`
